package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"iotlab-http-service/internal/infrastructure/config"
	"net/http"
)

// ErrDeviceUnreachable 设备中控不可达（超时、连接失败或响应异常）
// 传输层所有失败都归一为该错误，不向上抛原始网络错误
var ErrDeviceUnreachable = errors.New("设备中控不可达")

// InterfaceESP32Service 定义ESP32传输客户端接口
type InterfaceESP32Service interface {
	SetPinState(pin int, state string) (*PinState, error)
	GetPinState(pin int) (*PinState, error)
}

// PinState 表示中控返回的单个引脚状态
type PinState struct {
	Pin   int    `json:"pin"`
	State string `json:"state"` // "on" 或 "off"
}

// ESP32Service 负责与实验室ESP32中控的HTTP通信。
// 无状态，可被并发调用共享；不做重试，单次请求受硬超时约束。
type ESP32Service struct {
	BaseURL string
	Client  *http.Client
}

// NewESP32Service 创建一个新的ESP32传输客户端
func NewESP32Service(cfg *config.Config) InterfaceESP32Service {
	return &ESP32Service{
		BaseURL: cfg.ESP32BaseURL,
		Client: &http.Client{
			Timeout: cfg.GetRelayTimeout(),
		},
	}
}

// 1. SetPinState 设置单个引脚的开关状态
func (s *ESP32Service) SetPinState(pin int, state string) (*PinState, error) {
	url := fmt.Sprintf("%s/setState?pin=%d&state=%s", s.BaseURL, pin, state)
	return s.doRequest(url, pin)
}

// 2. GetPinState 读取单个引脚的当前状态
func (s *ESP32Service) GetPinState(pin int) (*PinState, error) {
	url := fmt.Sprintf("%s/getState?pin=%d", s.BaseURL, pin)
	return s.doRequest(url, pin)
}

// doRequest 执行一次中控请求，所有失败统一折叠为ErrDeviceUnreachable
func (s *ESP32Service) doRequest(url string, pin int) (*PinState, error) {
	resp, err := s.Client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: pin %d: %v", ErrDeviceUnreachable, pin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: pin %d: 中控返回状态码 %d", ErrDeviceUnreachable, pin, resp.StatusCode)
	}

	var state PinState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: pin %d: 解析响应失败: %v", ErrDeviceUnreachable, pin, err)
	}

	return &state, nil
}
