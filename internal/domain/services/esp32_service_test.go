package services

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestESP32Service(baseURL string, timeout time.Duration) *ESP32Service {
	return &ESP32Service{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func TestSetPinState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/setState" {
			t.Errorf("意外的请求路径: %s", r.URL.Path)
		}
		pin := r.URL.Query().Get("pin")
		state := r.URL.Query().Get("state")
		if pin != "23" || state != "on" {
			t.Errorf("意外的查询参数: pin=%s state=%s", pin, state)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"pin": 23, "state": "on"}`)
	}))
	defer srv.Close()

	svc := newTestESP32Service(srv.URL, 2*time.Second)

	result, err := svc.SetPinState(23, "on")
	if err != nil {
		t.Fatalf("SetPinState返回错误: %v", err)
	}
	if result.Pin != 23 || result.State != "on" {
		t.Errorf("意外的响应: %+v", result)
	}
}

func TestSetPinStateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestESP32Service(srv.URL, 2*time.Second)

	_, err := svc.SetPinState(23, "off")
	if err == nil {
		t.Fatal("非200响应应该返回错误")
	}
	if !errors.Is(err, ErrDeviceUnreachable) {
		t.Errorf("错误应该包装ErrDeviceUnreachable，实际为: %v", err)
	}
}

func TestSetPinStateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 模拟中控处理缓慢，触发客户端硬超时
		time.Sleep(200 * time.Millisecond)
		fmt.Fprintf(w, `{"pin": 23, "state": "on"}`)
	}))
	defer srv.Close()

	svc := newTestESP32Service(srv.URL, 50*time.Millisecond)

	_, err := svc.SetPinState(23, "on")
	if err == nil {
		t.Fatal("超时应该返回错误")
	}
	if !errors.Is(err, ErrDeviceUnreachable) {
		t.Errorf("超时错误应该包装ErrDeviceUnreachable，实际为: %v", err)
	}
}

func TestGetPinState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getState" {
			t.Errorf("意外的请求路径: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"pin": %s, "state": "off"}`, r.URL.Query().Get("pin"))
	}))
	defer srv.Close()

	svc := newTestESP32Service(srv.URL, 2*time.Second)

	result, err := svc.GetPinState(22)
	if err != nil {
		t.Fatalf("GetPinState返回错误: %v", err)
	}
	if result.Pin != 22 || result.State != "off" {
		t.Errorf("意外的响应: %+v", result)
	}
}

func TestGetPinStateConnectionRefused(t *testing.T) {
	// 不启动服务器，直接指向一个没人监听的地址
	svc := newTestESP32Service("http://127.0.0.1:1", 500*time.Millisecond)

	_, err := svc.GetPinState(23)
	if err == nil {
		t.Fatal("连接失败应该返回错误")
	}
	if !errors.Is(err, ErrDeviceUnreachable) {
		t.Errorf("连接错误应该包装ErrDeviceUnreachable，实际为: %v", err)
	}
}
