package server

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"typed-kv-service/internal/auth"
	"typed-kv-service/internal/core/ports"
	"typed-kv-service/internal/core/service"
	"typed-kv-service/internal/engine"
	"typed-kv-service/internal/observability"
	"typed-kv-service/internal/store"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/resp"
	"golang.org/x/crypto/bcrypt"
)

func startServer(t *testing.T, password string) *Server {
	t.Helper()
	return serveWith(t, service.New(engine.New(store.New())), password)
}

func serveWith(t *testing.T, svc ports.CommandService, password string) *Server {
	t.Helper()
	authn, err := auth.New(password, bcrypt.MinCost)
	require.NoError(t, err)

	srv := New(svc, authn, hclog.NewNullLogger())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()
	t.Cleanup(func() {
		srv.Close()
		assert.ErrorIs(t, <-done, ErrServerClosed)
	})
	return srv
}

func newClient(t *testing.T, srv *Server, password string) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:       srv.Addr().String(),
		Password:   password,
		MaxRetries: -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestServer_Strings(t *testing.T) {
	srv := startServer(t, "")
	rdb := newClient(t, srv, "")
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, "username", "zhangsan", 0).Err())
	val, err := rdb.Get(ctx, "username").Result()
	require.NoError(t, err)
	assert.Equal(t, "zhangsan", val)

	ok, err := rdb.SetNX(ctx, "timeout", "yes", 100*time.Millisecond).Result()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rdb.SetNX(ctx, "timeout", "again", time.Minute).Result()
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Eventually(t, func() bool {
		return rdb.Get(ctx, "timeout").Err() == redis.Nil
	}, 2*time.Second, 20*time.Millisecond)

	n, err := rdb.Del(ctx, "username", "missing").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, redis.Nil, rdb.Get(ctx, "username").Err())
}

func TestServer_Hashes(t *testing.T) {
	srv := startServer(t, "")
	rdb := newClient(t, srv, "")
	ctx := context.Background()

	n, err := rdb.HSet(ctx, "user", "name", "zhangsan", "age", "20", "city", "beijing").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	keys, err := rdb.HKeys(ctx, "user").Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "age", "city"}, keys)

	vals, err := rdb.HVals(ctx, "user").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"zhangsan", "20", "beijing"}, vals)

	n, err = rdb.HDel(ctx, "user", "age").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := rdb.HGetAll(ctx, "user").Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "zhangsan", "city": "beijing"}, all)

	err = rdb.LPush(ctx, "user", "x").Err()
	require.Error(t, err)
	assert.Equal(t, "WRONGTYPE Operation against a key holding the wrong kind of value", err.Error())
}

func TestServer_Lists(t *testing.T) {
	srv := startServer(t, "")
	rdb := newClient(t, srv, "")
	ctx := context.Background()

	require.NoError(t, rdb.RPush(ctx, "names", "唐僧", "悟空", "八戒", "悟净").Err())
	items, err := rdb.LRange(ctx, "names", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"唐僧", "悟空", "八戒", "悟净"}, items)

	require.NoError(t, rdb.LSet(ctx, "names", 0, "师傅").Err())
	head, err := rdb.LPop(ctx, "names").Result()
	require.NoError(t, err)
	assert.Equal(t, "师傅", head)

	length, err := rdb.LLen(ctx, "names").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 3, length)

	require.NoError(t, rdb.LPush(ctx, "scores", "3", "10", "2", "10", "7").Err())
	sorted, err := rdb.Sort(ctx, "scores", &redis.Sort{}).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "7", "10", "10"}, sorted)

	top, err := rdb.Sort(ctx, "scores", &redis.Sort{Order: "DESC", Offset: 0, Count: 2}).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "10"}, top)

	removed, err := rdb.LRem(ctx, "scores", 1, "10").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	items, err = rdb.LRange(ctx, "scores", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "2", "10", "3"}, items)

	err = rdb.LSet(ctx, "scores", 10, "x").Err()
	require.Error(t, err)
	assert.Equal(t, "ERR index out of range", err.Error())

	require.NoError(t, rdb.FlushDB(ctx).Err())
	size, err := rdb.DBSize(ctx).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)
}

func TestServer_Auth(t *testing.T) {
	srv := startServer(t, "s3cret")
	ctx := context.Background()

	anon := newClient(t, srv, "")
	err := anon.Get(ctx, "k").Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOAUTH")

	wrong := newClient(t, srv, "guess")
	err = wrong.Ping(ctx).Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRONGPASS")

	rdb := newClient(t, srv, "s3cret")
	require.NoError(t, rdb.Set(ctx, "k", "v", 0).Err())
	val, err := rdb.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func dialRaw(t *testing.T, srv *Server) (net.Conn, *resp.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, resp.NewReader(bufio.NewReader(conn))
}

func TestServer_RawProtocol(t *testing.T) {
	srv := startServer(t, "")
	conn, rd := dialRaw(t, srv)

	_, err := conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)
	v, _, err := rd.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.SimpleString, v.Type())
	assert.Equal(t, "PONG", v.String())

	_, err = conn.Write([]byte("*2\r\n$3\r\nGET\r\n$7\r\nmissing\r\n"))
	require.NoError(t, err)
	v, _, err = rd.ReadValue()
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = conn.Write([]byte("*1\r\n$5\r\nHELLO\r\n"))
	require.NoError(t, err)
	v, _, err = rd.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.Error, v.Type())
	assert.Contains(t, v.String(), "NOPROTO")

	_, err = conn.Write([]byte("*1\r\n$4\r\nQUIT\r\n"))
	require.NoError(t, err)
	v, _, err = rd.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, "OK", v.String())

	_, _, err = rd.ReadValue()
	assert.Error(t, err)
}

func TestServer_ConnectedClientsGauge(t *testing.T) {
	srv := startServer(t, "")
	before := testutil.ToFloat64(observability.ConnectedClients)

	conn, rd := dialRaw(t, srv)
	_, err := conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)
	_, _, err = rd.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(observability.ConnectedClients))

	conn.Close()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(observability.ConnectedClients) == before
	}, time.Second, 10*time.Millisecond)
}

func TestServer_CloseDropsClients(t *testing.T) {
	srv := startServer(t, "")
	_, rd := dialRaw(t, srv)

	require.NoError(t, srv.Close())
	_, _, err := rd.ReadValue()
	assert.Error(t, err)
	assert.Nil(t, srv.Close())
}

// crashingService panics on CRASH and delegates everything else.
type crashingService struct {
	ports.CommandService
}

func (c crashingService) Execute(ctx context.Context, args []string) (ports.Reply, error) {
	if args[0] == "CRASH" {
		panic("crash requested")
	}
	return c.CommandService.Execute(ctx, args)
}

func TestServer_RecoversFromPanickingCommand(t *testing.T) {
	srv := serveWith(t, crashingService{service.New(engine.New(store.New()))}, "")
	conn, rd := dialRaw(t, srv)

	_, err := conn.Write([]byte("*1\r\n$5\r\nCRASH\r\n"))
	require.NoError(t, err)
	v, _, err := rd.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.Error, v.Type())
	assert.Equal(t, "ERR internal error", v.String())

	// The connection and the server survive.
	_, err = conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)
	v, _, err = rd.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, "PONG", v.String())

	rdb := newClient(t, srv, "")
	assert.NoError(t, rdb.Ping(context.Background()).Err())
}
