package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "shutdown")

// Handler 关闭处理函数
type Handler func(ctx context.Context)

// Manager 中断信号处理与关闭回调
// 收到 SIGINT/SIGTERM 时取消运行上下文，等待中的交易确认随之返回；
// 已广播的交易不会撤回
type Manager struct {
	callbacks []Handler
	mu        sync.Mutex
	once      sync.Once
}

// NewManager 创建新的关闭管理器
func NewManager() *Manager {
	return &Manager{
		callbacks: make([]Handler, 0),
	}
}

// OnShutdown 注册关闭回调，按注册的逆序执行
func (m *Manager) OnShutdown(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, handler)
}

// WatchSignals 返回在收到中断信号时被取消的 context；stop 用于释放信号监听
func (m *Manager) WatchSignals(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			log.Warnf("⚠️ 收到信号 %s，停止等待后续步骤", sig)
			cancel()
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}

// Shutdown 执行所有关闭回调（只执行一次）
func (m *Manager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		m.mu.Lock()
		callbacks := m.callbacks
		m.mu.Unlock()

		for i := len(callbacks) - 1; i >= 0; i-- {
			callbacks[i](ctx)
		}
		log.Debugf("关闭回调已完成 (%d)", len(callbacks))
	})
}
