package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"time"

	grpcadapter "typed-kv-service/internal/grpc"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const password = "verify"

func main() {
	// 1. Start Server
	log.Println("Starting server...")
	cmd := exec.Command("./server",
		"-resp_addr", ":16379",
		"-grpc_addr", ":50055",
		"-http_addr", ":8090",
		"-password", password,
		"-bcrypt_cost", "4",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
	}()

	// Wait for startup
	time.Sleep(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 2. RESP Verification with a stock Redis client
	log.Println("Testing RESP API...")
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:16379", Password: password})
	defer rdb.Close()

	if err := rdb.Set(ctx, "resp_key", "resp_val", time.Minute).Err(); err != nil {
		log.Fatalf("RESP Set failed: %v", err)
	}
	if err := rdb.RPush(ctx, "resp_list", "3", "1", "2").Err(); err != nil {
		log.Fatalf("RESP RPush failed: %v", err)
	}
	sorted, err := rdb.Sort(ctx, "resp_list", &redis.Sort{}).Result()
	if err != nil {
		log.Fatalf("RESP Sort failed: %v", err)
	}
	if fmt.Sprint(sorted) != "[1 2 3]" {
		log.Fatalf("RESP Sort mismatch: got %v", sorted)
	}
	log.Println("✅ RESP API Verified")

	// 3. gRPC Verification
	log.Println("Testing gRPC API...")
	conn, err := grpc.NewClient("localhost:50055", grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect to gRPC: %v", err)
	}
	defer conn.Close()

	client := grpcadapter.NewClient(conn, password)
	if _, err := client.Execute(ctx, "HSET", "grpc_hash", "field", "grpc_val"); err != nil {
		log.Fatalf("gRPC HSET failed: %v", err)
	}
	v, err := client.Execute(ctx, "GET", "resp_key")
	if err != nil {
		log.Fatalf("gRPC GET failed: %v", err)
	}
	if v.GetStringValue() != "resp_val" {
		log.Fatalf("gRPC GET mismatch: expected 'resp_val', got %v", v)
	}
	log.Println("✅ gRPC API Verified")

	// 4. HTTP Verification, reading what gRPC wrote
	log.Println("Testing HTTP API...")
	result, err := httpCommand("http://localhost:8090/v1/commands", "HGET", "grpc_hash", "field")
	if err != nil {
		log.Fatalf("HTTP command failed: %v", err)
	}
	if result != "grpc_val" {
		log.Fatalf("Cross-protocol mismatch: expected 'grpc_val', got '%v'", result)
	}
	if err := httpGet("http://localhost:8090/healthz"); err != nil {
		log.Fatalf("HTTP health check failed: %v", err)
	}
	log.Println("✅ HTTP API Verified")
}

func httpGet(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status code %d", resp.StatusCode)
	}
	return nil
}

func httpCommand(url string, args ...string) (interface{}, error) {
	body, err := json.Marshal(map[string][]string{"args": args})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+password)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Result interface{} `json:"result"`
		Error  string      `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code %d: %s", resp.StatusCode, out.Error)
	}
	return out.Result, nil
}
