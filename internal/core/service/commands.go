package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"typed-kv-service/internal/core/ports"
	"typed-kv-service/internal/engine"
)

type handlerFunc func(ks ports.Keyspace, args []string) (ports.Reply, error)

// command describes one entry of the command table. arity counts the
// command name: a positive value is exact, a negative one is a minimum.
type command struct {
	arity   int
	read    bool
	handler handlerFunc
}

func (c command) accepts(n int) bool {
	if c.arity >= 0 {
		return n == c.arity
	}
	return n >= -c.arity
}

func commandTable() map[string]command {
	return map[string]command{
		// connection
		"ping":   {arity: -1, handler: ping},
		"echo":   {arity: 2, handler: echo},
		"select": {arity: 2, handler: selectDB},

		// strings
		"set":   {arity: -3, handler: set},
		"setnx": {arity: 3, handler: setnx},
		"get":   {arity: 2, read: true, handler: get},
		"del":   {arity: -2, handler: del},

		// hashes
		"hset":    {arity: -4, handler: hset},
		"hget":    {arity: 3, read: true, handler: hget},
		"hdel":    {arity: -3, handler: hdel},
		"hkeys":   {arity: 2, handler: hkeys},
		"hvals":   {arity: 2, handler: hvals},
		"hlen":    {arity: 2, handler: hlen},
		"hexists": {arity: 3, handler: hexists},
		"hgetall": {arity: 2, handler: hgetall},

		// lists
		"lpush":  {arity: -3, handler: lpush},
		"rpush":  {arity: -3, handler: rpush},
		"lrange": {arity: 4, handler: lrange},
		"llen":   {arity: 2, handler: llen},
		"lpop":   {arity: 2, read: true, handler: lpop},
		"rpop":   {arity: 2, read: true, handler: rpop},
		"lset":   {arity: 4, handler: lset},
		"lindex": {arity: 3, read: true, handler: lindex},
		"lrem":   {arity: 4, handler: lrem},
		"sort":   {arity: -2, handler: sortList},

		// keyspace
		"exists":   {arity: -2, handler: exists},
		"type":     {arity: 2, handler: typeOf},
		"ttl":      {arity: 2, handler: ttl(time.Second)},
		"pttl":     {arity: 2, handler: ttl(time.Millisecond)},
		"expire":   {arity: 3, handler: expire(time.Second, "expire")},
		"pexpire":  {arity: 3, handler: expire(time.Millisecond, "pexpire")},
		"persist":  {arity: 2, handler: persist},
		"keys":     {arity: 2, handler: keys},
		"dbsize":   {arity: 1, handler: dbsize},
		"flushdb":  {arity: -1, handler: flush},
		"flushall": {arity: -1, handler: flush},
	}
}

func sortedNames(table map[string]command) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ping(_ ports.Keyspace, args []string) (ports.Reply, error) {
	switch len(args) {
	case 1:
		return ports.Status("PONG"), nil
	case 2:
		return ports.Bulk(args[1]), nil
	default:
		return ports.Reply{}, wrongArgs("ping")
	}
}

func echo(_ ports.Keyspace, args []string) (ports.Reply, error) {
	return ports.Bulk(args[1]), nil
}

// selectDB accepts database 0 only; the keyspace is a single database.
func selectDB(_ ports.Keyspace, args []string) (ports.Reply, error) {
	n, err := parseInt(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	if n != 0 {
		return ports.Reply{}, ErrDBIndex
	}
	return ports.OK(), nil
}

func set(ks ports.Keyspace, args []string) (ports.Reply, error) {
	opts, err := parseSetOptions(args[3:])
	if err != nil {
		return ports.Reply{}, err
	}
	applied, err := ks.Set(args[1], args[2], opts)
	if err != nil {
		return ports.Reply{}, err
	}
	if !applied {
		return ports.Nil(), nil
	}
	return ports.OK(), nil
}

func setnx(ks ports.Keyspace, args []string) (ports.Reply, error) {
	opts, _ := parseSetOptions([]string{"NX"})
	applied, err := ks.Set(args[1], args[2], opts)
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Bool(applied), nil
}

func get(ks ports.Keyspace, args []string) (ports.Reply, error) {
	val, found, err := ks.Get(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.BulkOrNil(val, found), nil
}

func del(ks ports.Keyspace, args []string) (ports.Reply, error) {
	return ports.Integer(int64(ks.Del(args[1:]...))), nil
}

func hset(ks ports.Keyspace, args []string) (ports.Reply, error) {
	rest := args[2:]
	if len(rest)%2 != 0 {
		return ports.Reply{}, wrongArgs("hset")
	}
	pairs := make([]engine.FieldValue, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		pairs = append(pairs, engine.FieldValue{Field: rest[i], Value: rest[i+1]})
	}
	n, err := ks.HSetFields(args[1], pairs...)
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Integer(int64(n)), nil
}

func hget(ks ports.Keyspace, args []string) (ports.Reply, error) {
	val, found, err := ks.HGet(args[1], args[2])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.BulkOrNil(val, found), nil
}

func hdel(ks ports.Keyspace, args []string) (ports.Reply, error) {
	n, err := ks.HDel(args[1], args[2:]...)
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Integer(int64(n)), nil
}

func hkeys(ks ports.Keyspace, args []string) (ports.Reply, error) {
	fields, err := ks.HKeys(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Strings(fields), nil
}

func hvals(ks ports.Keyspace, args []string) (ports.Reply, error) {
	vals, err := ks.HVals(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Strings(vals), nil
}

func hlen(ks ports.Keyspace, args []string) (ports.Reply, error) {
	n, err := ks.HLen(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Integer(int64(n)), nil
}

func hexists(ks ports.Keyspace, args []string) (ports.Reply, error) {
	ok, err := ks.HExists(args[1], args[2])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Bool(ok), nil
}

func hgetall(ks ports.Keyspace, args []string) (ports.Reply, error) {
	pairs, err := ks.HGetAll(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	flat := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		flat = append(flat, p.Field, p.Value)
	}
	return ports.Strings(flat), nil
}

func lpush(ks ports.Keyspace, args []string) (ports.Reply, error) {
	n, err := ks.LPush(args[1], args[2:]...)
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Integer(int64(n)), nil
}

func rpush(ks ports.Keyspace, args []string) (ports.Reply, error) {
	n, err := ks.RPush(args[1], args[2:]...)
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Integer(int64(n)), nil
}

func lrange(ks ports.Keyspace, args []string) (ports.Reply, error) {
	start, err := parseInt(args[2])
	if err != nil {
		return ports.Reply{}, err
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return ports.Reply{}, err
	}
	items, err := ks.LRange(args[1], start, stop)
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Strings(items), nil
}

func llen(ks ports.Keyspace, args []string) (ports.Reply, error) {
	n, err := ks.LLen(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Integer(int64(n)), nil
}

func lpop(ks ports.Keyspace, args []string) (ports.Reply, error) {
	val, ok, err := ks.LPop(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.BulkOrNil(val, ok), nil
}

func rpop(ks ports.Keyspace, args []string) (ports.Reply, error) {
	val, ok, err := ks.RPop(args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.BulkOrNil(val, ok), nil
}

func lset(ks ports.Keyspace, args []string) (ports.Reply, error) {
	index, err := parseInt(args[2])
	if err != nil {
		return ports.Reply{}, err
	}
	if err := ks.LSet(args[1], index, args[3]); err != nil {
		return ports.Reply{}, err
	}
	return ports.OK(), nil
}

func lindex(ks ports.Keyspace, args []string) (ports.Reply, error) {
	index, err := parseInt(args[2])
	if err != nil {
		return ports.Reply{}, err
	}
	val, ok, err := ks.LIndex(args[1], index)
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.BulkOrNil(val, ok), nil
}

func lrem(ks ports.Keyspace, args []string) (ports.Reply, error) {
	count, err := parseInt(args[2])
	if err != nil {
		return ports.Reply{}, err
	}
	n, err := ks.LRem(args[1], count, args[3])
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Integer(int64(n)), nil
}

func sortList(ks ports.Keyspace, args []string) (ports.Reply, error) {
	opts, err := parseSortOptions(args[2:])
	if err != nil {
		return ports.Reply{}, err
	}
	items, err := ks.Sort(args[1], opts)
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Strings(items), nil
}

func exists(ks ports.Keyspace, args []string) (ports.Reply, error) {
	return ports.Integer(int64(ks.Exists(args[1:]...))), nil
}

func typeOf(ks ports.Keyspace, args []string) (ports.Reply, error) {
	return ports.Status(ks.Type(args[1])), nil
}

func ttl(unit time.Duration) handlerFunc {
	return func(ks ports.Keyspace, args []string) (ports.Reply, error) {
		d, found := ks.TTL(args[1])
		return ports.Integer(ttlReply(d, found, unit)), nil
	}
}

func expire(unit time.Duration, name string) handlerFunc {
	return func(ks ports.Keyspace, args []string) (ports.Reply, error) {
		n, err := parseInt(args[2])
		if err != nil {
			return ports.Reply{}, err
		}
		ttl, err := expireDuration(n, unit, name)
		if err != nil {
			return ports.Reply{}, err
		}
		return ports.Bool(ks.Expire(args[1], ttl)), nil
	}
}

func persist(ks ports.Keyspace, args []string) (ports.Reply, error) {
	return ports.Bool(ks.Persist(args[1])), nil
}

func keys(ks ports.Keyspace, args []string) (ports.Reply, error) {
	return ports.Strings(ks.Keys(args[1])), nil
}

func dbsize(ks ports.Keyspace, _ []string) (ports.Reply, error) {
	return ports.Integer(int64(ks.DBSize())), nil
}

// flush serves FLUSHDB and FLUSHALL. The ASYNC/SYNC modifiers are accepted;
// flushing is always synchronous.
func flush(ks ports.Keyspace, args []string) (ports.Reply, error) {
	if len(args) > 2 {
		return ports.Reply{}, ErrSyntax
	}
	if len(args) == 2 {
		switch strings.ToUpper(args[1]) {
		case "ASYNC", "SYNC":
		default:
			return ports.Reply{}, ErrSyntax
		}
	}
	ks.FlushDB()
	return ports.OK(), nil
}

func wrongArgs(name string) error {
	return fmt.Errorf("%w for '%s' command", ErrWrongArgs, name)
}
