package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

// envelope 对应服务端统一响应信封。
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	username := flag.String("user", fmt.Sprintf("loadtest-%d", time.Now().Unix()), "username to register")
	password := flag.String("pass", "loadtest-secret", "password")
	stock := flag.Int64("stock", 100, "initial product stock")

	// 超卖测试参数：200 个并发出库请求抢同一件商品
	total := flag.Int("n", 200, "total remove-stock requests")
	concurrency := flag.Int("c", 50, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}

	// 注册并拿 session，后续所有请求都带 bearer。
	token, err := registerUser(client, *baseURL, *username, *password)
	if err != nil {
		panic(fmt.Sprintf("register failed: %v", err))
	}
	fmt.Println("registered, session:", token[:8]+"...")

	productID, err := createProduct(client, *baseURL, token, *stock)
	if err != nil {
		panic(fmt.Sprintf("create product failed: %v", err))
	}
	fmt.Printf("product %d created with stock %d\n", productID, *stock)

	// 1) 不超卖测试：并发出库，总成功数不应超过初始库存
	fmt.Printf("start oversell test: product=%d requests=%d concurrency=%d\n", productID, *total, *concurrency)
	results := runRemoveStock(client, *baseURL, token, productID, *total, *concurrency)
	printSummary("oversell", results)

	left, err := getStock(client, *baseURL, token, productID)
	if err != nil {
		fmt.Println("stock check err:", err)
	} else {
		fmt.Println("final stock:", left)
	}

	// 2) 限流测试：同一个用户连续打库存接口（更容易触发 429）
	fmt.Println("\nstart rate limit test: 100 requests, concurrency 100")
	results2 := runRemoveStock(client, *baseURL, token, productID, 100, 100)
	printSummary("rate_limit", results2)
}

func registerUser(client *http.Client, baseURL, username, password string) (string, error) {
	env, err := doJSON(client, http.MethodPost, baseURL+"/auth/register", "",
		map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	var data struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", err
	}
	return data.SessionID, nil
}

func createProduct(client *http.Client, baseURL, token string, stock int64) (uint, error) {
	env, err := doJSON(client, http.MethodPost, baseURL+"/products", token,
		map[string]any{"name": "loadtest widget", "price_cents": 1999, "stock": stock})
	if err != nil {
		return 0, err
	}
	var data struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, err
	}
	return data.ID, nil
}

func runRemoveStock(client *http.Client, baseURL, token string, productID uint, total, concurrency int) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, total)

	for i := 0; i < total; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = removeOnce(client, baseURL, token, productID)
		}(i)
	}

	wg.Wait()
	return results
}

func removeOnce(client *http.Client, baseURL, token string, productID uint) Result {
	url := fmt.Sprintf("%s/products/%d/stock/remove/1", baseURL, productID)
	req, _ := http.NewRequest(http.MethodPost, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(body)}
}

// printSummary 聚合输出不同状态码分布。
func printSummary(name string, results []Result) {
	count := map[int]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{200, 400, 404, 429, 500} {
		if count[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, count[code])
		}
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
}

// doJSON 发送带 JSON body 的请求并解出响应信封。
func doJSON(client *http.Client, method, url, token string, body any) (envelope, error) {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return envelope{}, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return envelope{}, err
	}
	return env, nil
}

// getStock 查询库存接口，用于压测后校验是否出现超卖。
func getStock(client *http.Client, baseURL, token string, productID uint) (int64, error) {
	url := fmt.Sprintf("%s/products/%d/stock", baseURL, productID)
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return 0, err
	}
	var data struct {
		Stock int64 `json:"stock"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, err
	}
	return data.Stock, nil
}
