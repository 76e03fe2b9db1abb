// redisproxy - run one store operation through the retrying proxy
//
// Usage:
//
//	redisproxy [flags] <op> [args...]
//
// Flags:
//
//	-config string     JSON config file (default "redisproxy.json", missing file is fine)
//	-host string       Store host (env REDISPROXY_HOST, default "localhost")
//	-port int          Store port (env REDISPROXY_PORT, default 6379)
//	-retry int         Resends after a transport failure (env REDISPROXY_RETRY, default 1)
//	-timeout-ms int    Read/write timeout in milliseconds (env REDISPROXY_TIMEOUT_MS, default 2000)
//	-loglevel string   Log level: debug, info, warn, error (env REDISPROXY_LOG_LEVEL, default info)
//	-write-config file Write the resolved settings as JSON to file and exit
//	-version           Show version and exit
//
// Exit status is 0 when the operation's outcome is OK (or YES for exists),
// 1 otherwise, 2 for usage errors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/flashdb/redisproxy/internal/config"
	"github.com/flashdb/redisproxy/internal/version"
	"github.com/flashdb/redisproxy/pkg/proxy"
)

// errUsage marks bad operation arguments.
var errUsage = errors.New("usage")

func main() {
	configPath := flag.String("config", "redisproxy.json", "JSON config file")
	host := flag.String("host", "", "Store host")
	port := flag.Int("port", 0, "Store port")
	retry := flag.Uint("retry", 0, "Resends after a transport failure")
	timeoutMS := flag.Int64("timeout-ms", 0, "Read/write timeout in milliseconds")
	logLevel := flag.String("loglevel", "", "Log level: debug, info, warn, error")
	writeConfig := flag.String("write-config", "", "Write the resolved settings as JSON to this file and exit")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("redisproxy"))
		return
	}
	if flag.NArg() == 0 && *writeConfig == "" {
		printUsage()
		os.Exit(2)
	}

	cfg, err := resolve(*configPath, func(cfg *config.Config) {
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "host":
				cfg.Host = *host
			case "port":
				cfg.Port = *port
			case "retry":
				cfg.RetryCount = *retry
			case "timeout-ms":
				cfg.TimeoutMS = *timeoutMS
			case "loglevel":
				cfg.LogLevel = *logLevel
			}
		})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}
	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *writeConfig)
		return
	}

	p := proxy.NewWithConfig(proxy.Config{
		RetryCount: cfg.RetryCount,
		Timeout:    cfg.Timeout(),
		Logger:     cfg.NewLogger(),
	})
	if err := p.Connect(cfg.Host, cfg.Port); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	ok, err := run(p, flag.Args(), os.Stdout)
	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if !ok {
		p.Close()
		os.Exit(1)
	}
}

// resolve layers the JSON file, the environment and then the explicitly set
// flags (applied by override) onto the defaults, and validates the result.
func resolve(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	override(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: redisproxy [-config FILE] [-host HOST] [-port PORT] [-retry N] [-timeout-ms MS] [-loglevel LEVEL] <op> [args...]")
	fmt.Fprintln(os.Stderr, "       redisproxy [-config FILE] [settings flags] -write-config FILE")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Operations:")
	fmt.Fprintln(os.Stderr, "  ping | shutdown")
	fmt.Fprintln(os.Stderr, "  get KEY | set KEY VALUE | setex KEY SECONDS VALUE | del KEY | exists KEY | incr KEY")
	fmt.Fprintln(os.Stderr, "  lpush KEY VALUE | rpush KEY VALUE | lrange KEY START STOP | ltrim KEY START STOP")
	fmt.Fprintln(os.Stderr, "  smembers KEY | sadd KEY MEMBER | srem KEY MEMBER | hget KEY FIELD")
	fmt.Fprintln(os.Stderr, "  zadd KEY SCORE MEMBER | zcard KEY | zincr KEY INCREMENT MEMBER | zscore KEY MEMBER")
	fmt.Fprintln(os.Stderr, "  zrem KEY MEMBER | zrange KEY START STOP [withscores] | zremrangebyrank KEY START STOP")
	fmt.Fprintln(os.Stderr, "  raw COMMAND [ARGS...]")
}

// arity lists the argument count each operation takes, after the op name.
var arity = map[string]int{
	"ping": 0, "shutdown": 0,
	"get": 1, "set": 2, "setex": 3, "del": 1, "exists": 1, "incr": 1,
	"lpush": 2, "rpush": 2, "lrange": 3, "ltrim": 3,
	"smembers": 1, "sadd": 2, "srem": 2, "hget": 2,
	"zadd": 3, "zcard": 1, "zincr": 3, "zscore": 2, "zrem": 2, "zrange": 3, "zremrangebyrank": 3,
}

// run executes one operation and prints its outcome to out. ok reports
// whether the outcome counts as success.
func run(p *proxy.Proxy, args []string, out io.Writer) (ok bool, err error) {
	op := strings.ToLower(args[0])
	args = args[1:]

	if op == "raw" {
		if len(args) == 0 {
			return false, fmt.Errorf("%w: raw needs a command", errUsage)
		}
		rawArgs := make([]proxy.Arg, len(args)-1)
		for i, a := range args[1:] {
			rawArgs[i] = proxy.BytesArg([]byte(a))
		}
		reply, err := p.Do(args[0], rawArgs...)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, reply.String())
		return true, nil
	}

	n, known := arity[op]
	switch {
	case !known:
		return false, fmt.Errorf("%w: unknown operation %q", errUsage, op)
	case op == "zrange" && len(args) == 4 && strings.EqualFold(args[3], "withscores"):
	case len(args) != n:
		return false, fmt.Errorf("%w: %s takes %d arguments, got %d", errUsage, op, n, len(args))
	}

	var nums []int64
	parse := func(idx ...int) error {
		for _, i := range idx {
			v, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s: %q is not an integer", errUsage, op, args[i])
			}
			nums = append(nums, v)
		}
		return nil
	}

	switch op {
	case "ping":
		alive := p.IsAlive()
		fmt.Fprintln(out, map[bool]string{true: "PONG", false: "DOWN"}[alive])
		return alive, p.LastError()
	case "shutdown":
		if err := p.Shutdown(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "OK")
		return true, nil
	case "get":
		v, outcome := p.Get(args[0])
		return printLookup(out, outcome, v), p.LastError()
	case "hget":
		v, outcome := p.HGet(args[0], args[1])
		return printLookup(out, outcome, v), p.LastError()
	case "zscore":
		v, outcome := p.ZScore(args[0], []byte(args[1]))
		return printLookup(out, outcome, []byte(v)), p.LastError()
	case "set":
		return printStatus(out, p.Set(args[0], []byte(args[1]))), p.LastError()
	case "setex":
		secs, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: setex: %q is not a number of seconds", errUsage, args[1])
		}
		return printStatus(out, p.SetEx(args[0], []byte(args[2]), secs)), p.LastError()
	case "del":
		outcome := p.Del(args[0])
		fmt.Fprintln(out, outcome)
		return outcome == proxy.DeletionOK, p.LastError()
	case "exists":
		outcome := p.Exists(args[0])
		fmt.Fprintln(out, outcome)
		return outcome == proxy.ExistsYes, p.LastError()
	case "incr":
		v, status := p.Incr(args[0])
		return printCount(out, status, v), p.LastError()
	case "lpush":
		v, status := p.LPush(args[0], []byte(args[1]))
		return printCount(out, status, v), p.LastError()
	case "rpush":
		v, status := p.RPush(args[0], []byte(args[1]))
		return printCount(out, status, v), p.LastError()
	case "sadd":
		v, status := p.SAdd(args[0], []byte(args[1]))
		return printCount(out, status, v), p.LastError()
	case "srem":
		v, status := p.SRem(args[0], []byte(args[1]))
		return printCount(out, status, v), p.LastError()
	case "zcard":
		v, status := p.ZCard(args[0])
		return printCount(out, status, v), p.LastError()
	case "zrem":
		v, status := p.ZRem(args[0], []byte(args[1]))
		return printCount(out, status, v), p.LastError()
	case "zadd":
		if err := parse(1); err != nil {
			return false, err
		}
		v, status := p.ZAdd(args[0], []byte(args[2]), nums[0])
		return printCount(out, status, v), p.LastError()
	case "zincr":
		if err := parse(1); err != nil {
			return false, err
		}
		v, status := p.ZIncr(args[0], []byte(args[2]), nums[0])
		fmt.Fprintln(out, status, v)
		return status == proxy.StatusOK, p.LastError()
	case "ltrim":
		if err := parse(1, 2); err != nil {
			return false, err
		}
		return printStatus(out, p.LTrim(args[0], nums[0], nums[1])), p.LastError()
	case "zremrangebyrank":
		if err := parse(1, 2); err != nil {
			return false, err
		}
		v, status := p.ZRemRangeByRank(args[0], nums[0], nums[1])
		return printCount(out, status, v), p.LastError()
	case "lrange":
		if err := parse(1, 2); err != nil {
			return false, err
		}
		items, status := p.LRange(args[0], nums[0], nums[1])
		return printList(out, status, items, nil), p.LastError()
	case "smembers":
		items, status := p.SMembers(args[0])
		return printList(out, status, items, nil), p.LastError()
	case "zrange":
		if err := parse(1, 2); err != nil {
			return false, err
		}
		members, scores, status := p.ZRange(args[0], nums[0], nums[1], len(args) == 4)
		return printList(out, status, members, scores), p.LastError()
	}
	return false, fmt.Errorf("%w: unhandled operation %q", errUsage, op)
}

func printStatus(out io.Writer, status proxy.Status) bool {
	fmt.Fprintln(out, status)
	return status == proxy.StatusOK
}

func printCount(out io.Writer, status proxy.Status, n int64) bool {
	if status != proxy.StatusOK {
		return printStatus(out, status)
	}
	fmt.Fprintf(out, "%s %d\n", status, n)
	return true
}

func printLookup(out io.Writer, outcome proxy.Lookup, v []byte) bool {
	if outcome != proxy.LookupOK {
		fmt.Fprintln(out, outcome)
		return false
	}
	fmt.Fprintf(out, "%s %q\n", outcome, v)
	return true
}

func printList(out io.Writer, status proxy.Status, items [][]byte, scores []string) bool {
	fmt.Fprintln(out, status)
	if status != proxy.StatusOK {
		return false
	}
	for i, item := range items {
		if i < len(scores) {
			fmt.Fprintf(out, "%d) %q %s\n", i+1, item, scores[i])
			continue
		}
		fmt.Fprintf(out, "%d) %q\n", i+1, item)
	}
	return true
}
