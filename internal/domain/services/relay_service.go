package services

import (
	"errors"
	"fmt"
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/infrastructure/config"
	"iotlab-http-service/pkg/logger"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// 实时状态快照的缓存时长。只用来吸收短时间内的重复查询，
// 必须远小于继电器状态的人工操作间隔
const liveStateCacheTTL = 2 * time.Second

// 批次级错误：在任何传输调用发生之前整体拒绝请求
var (
	// ErrInvalidControlRequest 请求参数不合法（设备集合为空或状态值非法）
	ErrInvalidControlRequest = errors.New("请求参数不合法：deviceIds 不能为空，state 只能为 on 或 off")
	// ErrStudentForbidden STUDENT角色被整体拒绝，不解析设备
	ErrStudentForbidden = errors.New("学生不能控制设备")
	// ErrNoDevicesFound 请求中的设备ID均未找到
	ErrNoDevicesFound = errors.New("设备不存在")
)

// CallerIdentity 已认证调用者的身份（由认证中间件解析后传入）
type CallerIdentity struct {
	ID   uint
	Role models.UserRole
}

// DeviceControlOutcome 单个设备的控制结果。成功时带中控响应，
// 失败时带错误描述，两种形态互斥。
type DeviceControlOutcome struct {
	Device   string    `json:"device"`
	Response *PinState `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Success 判断该设备的控制是否成功
func (o DeviceControlOutcome) Success() bool {
	return o.Error == ""
}

// LiveStateResult 单个引脚的实时状态查询结果，与请求顺序一一对应
type LiveStateResult struct {
	Pin   int    `json:"pin"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// InterfaceRelayService 定义中继服务接口
type InterfaceRelayService interface {
	ControlDevices(caller CallerIdentity, deviceIDs []uint, state string) ([]DeviceControlOutcome, error)
	ReadLiveState(pins []int) []LiveStateResult
	GetDeviceHistory(deviceID uint) ([]models.Command, error)
	GetUserHistory(userID uint) ([]models.Command, error)
	GetAllCommands() ([]models.Command, error)
}

// RelayService 中继编排服务：向中控逐台下发开关指令，按设备隔离失败，
// 并为每次尝试追加一条指令台账记录
type RelayService struct {
	DB     *gorm.DB
	Config *config.Config
	ESP32  InterfaceESP32Service
	MQTT   InterfaceMQTTService    // 可为nil，未配置Broker时跳过事件发布
	Cache  InterfaceLiveStateCache // 可为nil，未配置Redis时每次都打到中控
}

// NewRelayService 创建一个新的中继服务
func NewRelayService(db *gorm.DB, cfg *config.Config, esp32 InterfaceESP32Service, mqtt InterfaceMQTTService, cache InterfaceLiveStateCache) InterfaceRelayService {
	return &RelayService{
		DB:     db,
		Config: cfg,
		ESP32:  esp32,
		MQTT:   mqtt,
		Cache:  cache,
	}
}

// 1. ControlDevices 批量控制设备开关。
// 整体校验通过后逐台处理：每台设备独立完成 授权校验 -> 传输调用 ->
// 状态回写 -> 台账追加，单台失败不影响批次内其他设备。
// 结果顺序与请求中设备ID的出现顺序一致（重复ID只处理一次）。
func (s *RelayService) ControlDevices(caller CallerIdentity, deviceIDs []uint, state string) ([]DeviceControlOutcome, error) {
	// 批次级校验，未通过时无任何副作用
	if len(deviceIDs) == 0 || (state != "on" && state != "off") {
		return nil, ErrInvalidControlRequest
	}

	// 学生整体拒绝，不解析设备、不写台账
	if caller.Role == models.RoleStudent {
		return nil, ErrStudentForbidden
	}

	// 解析设备：一次批量查询，之后按请求顺序处理
	var devices []models.Device
	if err := s.DB.Where("id IN ?", deviceIDs).Find(&devices).Error; err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}

	deviceByID := make(map[uint]*models.Device, len(devices))
	for i := range devices {
		deviceByID[devices[i].ID] = &devices[i]
	}

	results := make([]DeviceControlOutcome, 0, len(deviceIDs))
	seen := make(map[uint]bool, len(deviceIDs))

	for _, id := range deviceIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		device, ok := deviceByID[id]
		if !ok {
			// 未找到的设备保留在结果中，便于前端区分
			results = append(results, DeviceControlOutcome{Device: deviceLabel(id), Error: "not found"})
			continue
		}

		results = append(results, s.controlOne(caller, device, state))
	}

	return results, nil
}

// controlOne 处理单台设备的完整控制流程
func (s *RelayService) controlOne(caller CallerIdentity, device *models.Device, state string) DeviceControlOutcome {
	// 按台授权：FACULTY仅能控制放行的设备，拒绝时不调传输、不写台账
	if caller.Role == models.RoleFaculty && !device.AllowedForFaculty {
		return DeviceControlOutcome{Device: device.Name, Error: "not allowed"}
	}

	resp, err := s.ESP32.SetPinState(device.PinNumber, state)
	if err != nil {
		// 传输失败：状态不回写，台账记 failed
		logger.Warning("设备 %s (pin %d) 控制失败: %v", device.Name, device.PinNumber, err)

		if logErr := s.appendCommand(caller.ID, device.ID, state, models.CommandStatusFailed); logErr != nil {
			logger.Error("设备 %s 指令台账写入失败: %v", device.Name, logErr)
			return DeviceControlOutcome{Device: device.Name, Error: "audit log write failed"}
		}
		return DeviceControlOutcome{Device: device.Name, Error: "unreachable"}
	}

	// 传输成功：回写缓存状态。回写与台账不在一个事务里，
	// 回写失败只记日志，台账仍按实际传输结果落 completed
	if err := s.DB.Model(device).Update("last_known_state", state == "on").Error; err != nil {
		logger.Warning("设备 %s 状态回写失败: %v", device.Name, err)
	}

	if err := s.appendCommand(caller.ID, device.ID, state, models.CommandStatusCompleted); err != nil {
		// 台账是审计记录，写入失败必须显式反映为该台设备的失败
		logger.Error("设备 %s 指令台账写入失败: %v", device.Name, err)
		return DeviceControlOutcome{Device: device.Name, Error: "audit log write failed"}
	}

	// 发布状态变更事件（未配置MQTT时为空操作）
	if s.MQTT != nil {
		if err := s.MQTT.PublishRelayState(device.ID, device.Name, device.PinNumber, state); err != nil {
			logger.Warning("设备 %s 状态事件发布失败: %v", device.Name, err)
		}
	}

	return DeviceControlOutcome{Device: device.Name, Response: resp}
}

// appendCommand 追加一条指令台账记录（只增不改）
func (s *RelayService) appendCommand(userID, deviceID uint, command string, status models.CommandStatus) error {
	return s.DB.Create(&models.Command{
		UserID:   userID,
		DeviceID: deviceID,
		Command:  command,
		Status:   status,
	}).Error
}

// 2. ReadLiveState 逐个查询引脚实时状态。
// 结果与输入顺序一一对应，单个引脚不可达时以错误标记占位，
// 不影响其余引脚。只读查询，不鉴权、不写台账。
// 配置了Redis时，成功的读数以极短的TTL缓存为快照，
// 吸收突发的重复查询；缓存故障一律降级为直连中控。
func (s *RelayService) ReadLiveState(pins []int) []LiveStateResult {
	results := make([]LiveStateResult, 0, len(pins))

	for _, pin := range pins {
		key := strconv.Itoa(pin)

		if s.Cache != nil {
			var snapshot PinState
			if err := s.Cache.GetLiveState(key, &snapshot); err == nil {
				results = append(results, LiveStateResult{Pin: snapshot.Pin, State: snapshot.State})
				continue
			}
		}

		state, err := s.ESP32.GetPinState(pin)
		if err != nil {
			results = append(results, LiveStateResult{Pin: pin, Error: "unreachable"})
			continue
		}

		if s.Cache != nil {
			if err := s.Cache.CacheLiveState(key, state, liveStateCacheTTL); err != nil {
				logger.Warning("引脚 %d 状态快照缓存失败: %v", pin, err)
			}
		}
		results = append(results, LiveStateResult{Pin: state.Pin, State: state.State})
	}

	return results
}

// 3. GetDeviceHistory 获取单台设备的指令历史，最近的排在前面
func (s *RelayService) GetDeviceHistory(deviceID uint) ([]models.Command, error) {
	var commands []models.Command
	if err := s.DB.Preload("Device").
		Where("device_id = ?", deviceID).
		Order("requested_at DESC").
		Find(&commands).Error; err != nil {
		return nil, err
	}
	return commands, nil
}

// 4. GetUserHistory 获取单个用户的指令历史，最近的排在前面
func (s *RelayService) GetUserHistory(userID uint) ([]models.Command, error) {
	var commands []models.Command
	if err := s.DB.Preload("Device").
		Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&commands).Error; err != nil {
		return nil, err
	}
	return commands, nil
}

// 5. GetAllCommands 获取全量指令历史（管理员视图），最近的排在前面
func (s *RelayService) GetAllCommands() ([]models.Command, error) {
	var commands []models.Command
	if err := s.DB.Preload("Device").Preload("User").
		Order("requested_at DESC").
		Find(&commands).Error; err != nil {
		return nil, err
	}
	return commands, nil
}

// deviceLabel 未解析成功的设备在结果中用ID占位
func deviceLabel(id uint) string {
	return fmt.Sprintf("#%d", id)
}
