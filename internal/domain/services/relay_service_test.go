package services

import (
	"encoding/json"
	"errors"
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/infrastructure/config"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubESP32 是可编程的传输层替身，记录每次调用
type stubESP32 struct {
	setCalls   []int          // 按顺序记录SetPinState收到的引脚
	getCalls   []int          // 按顺序记录GetPinState收到的引脚
	failPins   map[int]bool   // 这些引脚模拟不可达
	stateByPin map[int]string // GetPinState返回的状态
}

func (s *stubESP32) SetPinState(pin int, state string) (*PinState, error) {
	s.setCalls = append(s.setCalls, pin)
	if s.failPins[pin] {
		return nil, ErrDeviceUnreachable
	}
	return &PinState{Pin: pin, State: state}, nil
}

func (s *stubESP32) GetPinState(pin int) (*PinState, error) {
	s.getCalls = append(s.getCalls, pin)
	if s.failPins[pin] {
		return nil, ErrDeviceUnreachable
	}
	state, ok := s.stateByPin[pin]
	if !ok {
		state = "off"
	}
	return &PinState{Pin: pin, State: state}, nil
}

func setupRelayTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Lab{}, &models.Device{}, &models.Command{}); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}

	return db
}

func seedRelayFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()

	lab := models.Lab{Name: "实验室A301"}
	if err := db.Create(&lab).Error; err != nil {
		t.Fatalf("创建实验室失败: %v", err)
	}

	devices := []models.Device{
		{Name: "排气扇1号", PinNumber: 23, LabID: lab.ID, AllowedForFaculty: true},
		{Name: "加热台", PinNumber: 22, LabID: lab.ID, AllowedForFaculty: false},
		{Name: "照明灯", PinNumber: 21, LabID: lab.ID, AllowedForFaculty: true},
	}
	for i := range devices {
		if err := db.Create(&devices[i]).Error; err != nil {
			t.Fatalf("创建设备失败: %v", err)
		}
	}

	users := []models.User{
		{Name: "admin", Email: "admin@iotlab.local", Password: "x", Role: models.RoleAdmin},
		{Name: "teacher", Email: "teacher@iotlab.local", Password: "x", Role: models.RoleFaculty},
		{Name: "student", Email: "student@iotlab.local", Password: "x", Role: models.RoleStudent},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("创建用户失败: %v", err)
		}
	}
}

func newRelayServiceForTest(db *gorm.DB, stub *stubESP32) InterfaceRelayService {
	cfg := &config.Config{RelayTimeoutMS: 2000}
	return NewRelayService(db, cfg, stub, nil, nil)
}

// stubLiveStateCache 是内存版的快照缓存替身，记录读写次数
type stubLiveStateCache struct {
	entries map[string][]byte
	hits    int
	stores  int
}

func newStubLiveStateCache() *stubLiveStateCache {
	return &stubLiveStateCache{entries: map[string][]byte{}}
}

func (c *stubLiveStateCache) CacheLiveState(pin string, stateData interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(stateData)
	if err != nil {
		return err
	}
	c.entries[pin] = raw
	c.stores++
	return nil
}

func (c *stubLiveStateCache) GetLiveState(pin string, dest interface{}) error {
	raw, ok := c.entries[pin]
	if !ok {
		return errors.New("cache miss")
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func commandCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Command{}).Count(&count).Error; err != nil {
		t.Fatalf("统计指令记录失败: %v", err)
	}
	return count
}

func TestControlDevicesInvalidRequest(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	admin := CallerIdentity{ID: 1, Role: models.RoleAdmin}

	// 空设备集合
	if _, err := svc.ControlDevices(admin, nil, "on"); !errors.Is(err, ErrInvalidControlRequest) {
		t.Errorf("空设备集合应该返回ErrInvalidControlRequest，实际为: %v", err)
	}

	// 非法状态
	if _, err := svc.ControlDevices(admin, []uint{1}, "toggle"); !errors.Is(err, ErrInvalidControlRequest) {
		t.Errorf("非法状态应该返回ErrInvalidControlRequest，实际为: %v", err)
	}

	// 整体校验失败时不允许有任何副作用
	if len(stub.setCalls) != 0 {
		t.Errorf("校验失败不应触发传输调用，实际调用了%d次", len(stub.setCalls))
	}
	if n := commandCount(t, db); n != 0 {
		t.Errorf("校验失败不应写台账，实际有%d条", n)
	}
}

func TestControlDevicesStudentDeniedGlobally(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	student := CallerIdentity{ID: 3, Role: models.RoleStudent}

	_, err := svc.ControlDevices(student, []uint{1, 2, 3}, "on")
	if !errors.Is(err, ErrStudentForbidden) {
		t.Fatalf("学生应该被整体拒绝，实际为: %v", err)
	}

	// 学生请求不触发传输、不写台账
	if len(stub.setCalls) != 0 {
		t.Errorf("学生请求不应触发传输调用")
	}
	if n := commandCount(t, db); n != 0 {
		t.Errorf("学生请求不应写台账，实际有%d条", n)
	}
}

func TestControlDevicesNoDevicesFound(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	admin := CallerIdentity{ID: 1, Role: models.RoleAdmin}

	_, err := svc.ControlDevices(admin, []uint{99, 100}, "on")
	if !errors.Is(err, ErrNoDevicesFound) {
		t.Fatalf("所有设备都不存在时应该返回ErrNoDevicesFound，实际为: %v", err)
	}

	if len(stub.setCalls) != 0 {
		t.Errorf("无可解析设备时不应触发传输调用")
	}
}

func TestControlDevicesAdminSuccess(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	admin := CallerIdentity{ID: 1, Role: models.RoleAdmin}

	results, err := svc.ControlDevices(admin, []uint{1}, "on")
	if err != nil {
		t.Fatalf("ControlDevices返回错误: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("应该有1条结果，实际有%d条", len(results))
	}
	if !results[0].Success() {
		t.Errorf("控制应该成功，实际: %+v", results[0])
	}
	if results[0].Response == nil || results[0].Response.Pin != 23 {
		t.Errorf("成功结果应该携带中控响应: %+v", results[0])
	}

	// 状态回写
	var device models.Device
	if err := db.First(&device, 1).Error; err != nil {
		t.Fatalf("查询设备失败: %v", err)
	}
	if !device.LastKnownState {
		t.Error("成功后last_known_state应该为true")
	}

	// 台账 completed
	var cmd models.Command
	if err := db.Where("device_id = ?", 1).First(&cmd).Error; err != nil {
		t.Fatalf("查询指令记录失败: %v", err)
	}
	if cmd.Status != models.CommandStatusCompleted {
		t.Errorf("台账状态应该为completed，实际为: %s", cmd.Status)
	}
	if cmd.UserID != admin.ID || cmd.Command != "on" {
		t.Errorf("台账记录内容不正确: %+v", cmd)
	}
}

func TestControlDevicesUnreachable(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{failPins: map[int]bool{23: true}}
	svc := newRelayServiceForTest(db, stub)

	admin := CallerIdentity{ID: 1, Role: models.RoleAdmin}

	results, err := svc.ControlDevices(admin, []uint{1}, "on")
	if err != nil {
		t.Fatalf("单台不可达不应导致整体失败: %v", err)
	}
	if len(results) != 1 || results[0].Error != "unreachable" {
		t.Fatalf("不可达设备应该标记为unreachable: %+v", results)
	}

	// 状态不回写
	var device models.Device
	if err := db.First(&device, 1).Error; err != nil {
		t.Fatalf("查询设备失败: %v", err)
	}
	if device.LastKnownState {
		t.Error("传输失败不应回写last_known_state")
	}

	// 台账 failed
	var cmd models.Command
	if err := db.Where("device_id = ?", 1).First(&cmd).Error; err != nil {
		t.Fatalf("传输失败也应该写台账: %v", err)
	}
	if cmd.Status != models.CommandStatusFailed {
		t.Errorf("台账状态应该为failed，实际为: %s", cmd.Status)
	}
}

func TestControlDevicesFacultyMixedBatch(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	faculty := CallerIdentity{ID: 2, Role: models.RoleFaculty}

	// 设备1放行，设备2禁止教师，99不存在
	results, err := svc.ControlDevices(faculty, []uint{1, 2, 99}, "on")
	if err != nil {
		t.Fatalf("混合批次不应整体失败: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("应该有3条结果，实际有%d条", len(results))
	}

	// 结果顺序与请求顺序一致
	if !results[0].Success() || results[0].Device != "排气扇1号" {
		t.Errorf("放行设备应该成功: %+v", results[0])
	}
	if results[1].Error != "not allowed" || results[1].Device != "加热台" {
		t.Errorf("禁止教师的设备应该标记not allowed: %+v", results[1])
	}
	if results[2].Error != "not found" {
		t.Errorf("不存在的设备应该标记not found: %+v", results[2])
	}

	// 被拒绝的设备不触发传输
	if len(stub.setCalls) != 1 || stub.setCalls[0] != 23 {
		t.Errorf("只有放行设备应触发传输调用，实际: %v", stub.setCalls)
	}

	// 被拒绝和未找到的设备不写台账
	if n := commandCount(t, db); n != 1 {
		t.Errorf("只有实际尝试过传输的设备写台账，实际有%d条", n)
	}
}

func TestControlDevicesIdempotentRepeat(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	admin := CallerIdentity{ID: 1, Role: models.RoleAdmin}

	// 同一指令下发两次：物理结果幂等，台账记两条
	for i := 0; i < 2; i++ {
		results, err := svc.ControlDevices(admin, []uint{1}, "on")
		if err != nil {
			t.Fatalf("第%d次控制失败: %v", i+1, err)
		}
		if !results[0].Success() {
			t.Fatalf("第%d次控制应该成功: %+v", i+1, results[0])
		}
	}

	var device models.Device
	if err := db.First(&device, 1).Error; err != nil {
		t.Fatalf("查询设备失败: %v", err)
	}
	if !device.LastKnownState {
		t.Error("重复下发后状态应保持true")
	}

	if n := commandCount(t, db); n != 2 {
		t.Errorf("两次下发应各记一条台账，实际有%d条", n)
	}
}

func TestControlDevicesDuplicateIDsProcessedOnce(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	admin := CallerIdentity{ID: 1, Role: models.RoleAdmin}

	results, err := svc.ControlDevices(admin, []uint{1, 1, 1}, "off")
	if err != nil {
		t.Fatalf("ControlDevices返回错误: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("重复ID只处理一次，实际有%d条结果", len(results))
	}
	if len(stub.setCalls) != 1 {
		t.Errorf("重复ID只触发一次传输，实际%d次", len(stub.setCalls))
	}
}

func TestReadLiveState(t *testing.T) {
	db := setupRelayTestDB(t)
	stub := &stubESP32{
		failPins:   map[int]bool{22: true},
		stateByPin: map[int]string{23: "on", 21: "off"},
	}
	svc := newRelayServiceForTest(db, stub)

	states := svc.ReadLiveState([]int{23, 22, 21})
	if len(states) != 3 {
		t.Fatalf("结果应与请求一一对应，实际有%d条", len(states))
	}

	// 顺序与请求一致，不可达的引脚以error占位
	if states[0].Pin != 23 || states[0].State != "on" || states[0].Error != "" {
		t.Errorf("引脚23结果不正确: %+v", states[0])
	}
	if states[1].Pin != 22 || states[1].Error != "unreachable" {
		t.Errorf("不可达引脚应标记unreachable: %+v", states[1])
	}
	if states[2].Pin != 21 || states[2].State != "off" {
		t.Errorf("引脚21结果不正确: %+v", states[2])
	}
}

func TestCommandHistoryOrdering(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	// 手工造三条不同时间的台账记录
	base := time.Now().Add(-time.Hour)
	fixtures := []models.Command{
		{UserID: 1, DeviceID: 1, Command: "on", Status: models.CommandStatusCompleted, RequestedAt: base},
		{UserID: 2, DeviceID: 1, Command: "off", Status: models.CommandStatusFailed, RequestedAt: base.Add(10 * time.Minute)},
		{UserID: 1, DeviceID: 3, Command: "on", Status: models.CommandStatusCompleted, RequestedAt: base.Add(20 * time.Minute)},
	}
	for i := range fixtures {
		if err := db.Create(&fixtures[i]).Error; err != nil {
			t.Fatalf("创建台账记录失败: %v", err)
		}
	}

	// 设备历史：最近的排在前面
	history, err := svc.GetDeviceHistory(1)
	if err != nil {
		t.Fatalf("GetDeviceHistory返回错误: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("设备1应该有2条历史，实际有%d条", len(history))
	}
	if history[0].Command != "off" || history[1].Command != "on" {
		t.Errorf("设备历史应按请求时间倒序: %+v", history)
	}

	// 用户历史
	userHistory, err := svc.GetUserHistory(1)
	if err != nil {
		t.Fatalf("GetUserHistory返回错误: %v", err)
	}
	if len(userHistory) != 2 {
		t.Fatalf("用户1应该有2条历史，实际有%d条", len(userHistory))
	}
	if !userHistory[0].RequestedAt.After(userHistory[1].RequestedAt) {
		t.Error("用户历史应按请求时间倒序")
	}

	// 全量历史
	all, err := svc.GetAllCommands()
	if err != nil {
		t.Fatalf("GetAllCommands返回错误: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("全量历史应该有3条，实际有%d条", len(all))
	}
	if all[0].DeviceID != 3 {
		t.Errorf("全量历史第一条应该是最新的记录: %+v", all[0])
	}
}

func TestControlDevicesMixedOutcomeScenario(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	// 设备1（pin23）可达，设备3（pin21）不可达
	stub := &stubESP32{failPins: map[int]bool{21: true}}
	svc := newRelayServiceForTest(db, stub)

	admin := CallerIdentity{ID: 1, Role: models.RoleAdmin}

	results, err := svc.ControlDevices(admin, []uint{1, 3}, "on")
	if err != nil {
		t.Fatalf("ControlDevices返回错误: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("应该有2条结果，实际有%d条", len(results))
	}
	if !results[0].Success() {
		t.Errorf("设备1应该成功: %+v", results[0])
	}
	if results[1].Error != "unreachable" {
		t.Errorf("设备3应该标记unreachable: %+v", results[1])
	}

	// 台账：一条completed一条failed
	var completed, failed int64
	db.Model(&models.Command{}).Where("status = ?", models.CommandStatusCompleted).Count(&completed)
	db.Model(&models.Command{}).Where("status = ?", models.CommandStatusFailed).Count(&failed)
	if completed != 1 || failed != 1 {
		t.Errorf("应该各有1条completed和failed台账，实际: completed=%d failed=%d", completed, failed)
	}

	// 状态回写只发生在成功的设备上
	var d1, d3 models.Device
	db.First(&d1, 1)
	db.First(&d3, 3)
	if !d1.LastKnownState {
		t.Error("设备1状态应该回写为true")
	}
	if d3.LastKnownState {
		t.Error("设备3状态不应回写")
	}
}

func TestReadLiveStateSnapshotCache(t *testing.T) {
	db := setupRelayTestDB(t)
	stub := &stubESP32{stateByPin: map[int]string{23: "on", 22: "off"}}
	cache := newStubLiveStateCache()
	cfg := &config.Config{RelayTimeoutMS: 2000}
	svc := NewRelayService(db, cfg, stub, nil, cache)

	// 第一轮：全部缓存未命中，打到中控并写入快照
	first := svc.ReadLiveState([]int{23, 22})
	if len(first) != 2 || first[0].State != "on" || first[1].State != "off" {
		t.Fatalf("第一轮读数不正确: %+v", first)
	}
	if len(stub.getCalls) != 2 {
		t.Fatalf("第一轮应该有2次传输调用，实际%d次", len(stub.getCalls))
	}
	if cache.stores != 2 {
		t.Errorf("成功读数应该写入快照，实际写入%d次", cache.stores)
	}

	// 第二轮：快照命中，不再打中控
	second := svc.ReadLiveState([]int{23, 22})
	if len(second) != 2 || second[0].State != "on" || second[1].State != "off" {
		t.Fatalf("第二轮读数不正确: %+v", second)
	}
	if len(stub.getCalls) != 2 {
		t.Errorf("快照命中时不应有新的传输调用，实际共%d次", len(stub.getCalls))
	}
	if cache.hits != 2 {
		t.Errorf("第二轮应该命中2次快照，实际命中%d次", cache.hits)
	}
}

func TestReadLiveStateUnreachableNotCached(t *testing.T) {
	db := setupRelayTestDB(t)
	stub := &stubESP32{failPins: map[int]bool{22: true}}
	cache := newStubLiveStateCache()
	cfg := &config.Config{RelayTimeoutMS: 2000}
	svc := NewRelayService(db, cfg, stub, nil, cache)

	results := svc.ReadLiveState([]int{22})
	if len(results) != 1 || results[0].Error != "unreachable" {
		t.Fatalf("不可达引脚应该标记unreachable: %+v", results)
	}
	// 失败读数不能进快照，否则恢复后还会返回错误状态
	if cache.stores != 0 {
		t.Errorf("不可达读数不应写入快照，实际写入%d次", cache.stores)
	}
}

func TestControlDevicesLedgerWriteFailure(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	stub := &stubESP32{}
	svc := newRelayServiceForTest(db, stub)

	// 删掉台账表，让追加写入必然失败
	if err := db.Migrator().DropTable(&models.Command{}); err != nil {
		t.Fatalf("删除台账表失败: %v", err)
	}

	admin := CallerIdentity{ID: 1, Role: models.RoleAdmin}

	results, err := svc.ControlDevices(admin, []uint{1, 3}, "on")
	if err != nil {
		t.Fatalf("ControlDevices返回错误: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("应该有2条结果，实际有%d条", len(results))
	}

	// 传输成功但台账写不进去：逐台标记审计失败，批次继续
	for i, result := range results {
		if result.Error != "audit log write failed" {
			t.Errorf("结果%d应该标记audit log write failed: %+v", i, result)
		}
	}
	if len(stub.setCalls) != 2 {
		t.Errorf("两台设备都应该完成传输调用，实际%d次", len(stub.setCalls))
	}

	// 状态回写以传输结果为准，不被台账失败回滚
	var d1 models.Device
	db.First(&d1, 1)
	if !d1.LastKnownState {
		t.Error("传输成功后设备1状态应该已回写")
	}
}
