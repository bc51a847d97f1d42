// Command pgcli is an interactive REPL over a single disk-backed
// extendible hash table, wiring together the disk scheduler, buffer
// pool manager and hash index packages. Grounded on the teacher's own
// cmd/client/main.go REPL (readline, history file, meta-commands).
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tuannm99/corepage/internal/bufferpool"
	"github.com/tuannm99/corepage/internal/config"
	"github.com/tuannm99/corepage/internal/diskio"
	"github.com/tuannm99/corepage/internal/hash"
	"github.com/tuannm99/corepage/internal/hashindex"
	"github.com/tuannm99/corepage/internal/scheduler"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".pgcli_history"
	}
	return filepath.Join(home, ".pgcli_history")
}

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to a YAML config file (optional)")
		dataDir  = flag.String("data-dir", "", "overrides config's data_dir")
		histPath = flag.String("history", defaultHistoryPath(), "history file path")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir data dir: %v\n", err)
		os.Exit(1)
	}

	disk, err := diskio.New(cfg.DataDir, "pgcli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open disk manager: %v\n", err)
		os.Exit(1)
	}
	defer disk.Close()

	sched := scheduler.New(disk)
	defer sched.Shutdown()

	bpm := bufferpool.New(cfg.BufferPool.PoolSize, cfg.BufferPool.ReplacerK, sched)
	defer bpm.Shutdown()

	kc := hashindex.Int64Codec{}
	hasher := hashindex.CodecHasher[int64]{Codec: kc, H: hash.XXHasher{}}
	tbl, err := hashindex.New[int64, int64](bpm, kc, kc, hashindex.Int64Comparator{}, hasher, hashindex.Config{
		HeaderMaxDepth:    cfg.HashIndex.HeaderMaxDepth,
		DirectoryMaxDepth: cfg.HashIndex.DirectoryMaxDepth,
		BucketMaxSize:     cfg.HashIndex.BucketMaxSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init hash table: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pgcli> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		HistoryFile:     *histPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("pgcli connected to %s (header page %d)\n", cfg.DataDir, tbl.HeaderPageID())
	fmt.Println("type \\help for commands")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "\\q", "quit", "exit":
			return
		case "\\help":
			printHelp()
		case "insert":
			runInsert(tbl, fields)
		case "get":
			runGet(tbl, fields)
		case "remove":
			runRemove(tbl, fields)
		case "flush":
			if err := bpm.FlushAllPages(); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println("ok")
		default:
			fmt.Printf("unknown command: %s (try \\help)\n", fields[0])
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  insert <key> <value>   insert an int64 key/value pair
  get <key>               look up a key
  remove <key>            remove a key
  flush                   flush every dirty page to disk
  \q | quit | exit        quit
  \help                   show this help`)
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func runInsert(tbl *hashindex.ExtendibleHashTable[int64, int64], fields []string) {
	if len(fields) != 3 {
		fmt.Println("usage: insert <key> <value>")
		return
	}
	key, err := parseInt64(fields[1])
	if err != nil {
		fmt.Printf("bad key: %v\n", err)
		return
	}
	value, err := parseInt64(fields[2])
	if err != nil {
		fmt.Printf("bad value: %v\n", err)
		return
	}
	ok, err := tbl.Insert(key, value)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("false (duplicate key or index full)")
		return
	}
	fmt.Println("true")
}

func runGet(tbl *hashindex.ExtendibleHashTable[int64, int64], fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: get <key>")
		return
	}
	key, err := parseInt64(fields[1])
	if err != nil {
		fmt.Printf("bad key: %v\n", err)
		return
	}
	value, ok, err := tbl.GetValue(key)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("(not found)")
		return
	}
	fmt.Println(value)
}

func runRemove(tbl *hashindex.ExtendibleHashTable[int64, int64], fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: remove <key>")
		return
	}
	key, err := parseInt64(fields[1])
	if err != nil {
		fmt.Printf("bad key: %v\n", err)
		return
	}
	ok, err := tbl.Remove(key)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(ok)
}
