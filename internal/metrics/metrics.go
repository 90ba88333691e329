// Package metrics описывает счётчики Prometheus сервиса доступа.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор счётчиков. Нулевое значение nil-указателя безопасно: методы ничего не делают.
type Metrics struct {
	AccessChecks       *prometheus.CounterVec
	Activations        *prometheus.CounterVec
	DeviceReplacements prometheus.Counter
	KeysGenerated      prometheus.Counter
	Notifications      *prometheus.CounterVec
}

// New создаёт счётчики и регистрирует их в reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		AccessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportswissapp",
			Name:      "access_checks_total",
			Help:      "Online access checks by mode and outcome.",
		}, []string{"mode", "allowed"}),
		Activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportswissapp",
			Name:      "license_activations_total",
			Help:      "License key activations by result.",
		}, []string{"result"}),
		DeviceReplacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sportswissapp",
			Name:      "device_replacements_total",
			Help:      "Sessions that took over the active device of an account.",
		}),
		KeysGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sportswissapp",
			Name:      "license_keys_generated_total",
			Help:      "License keys generated by admins.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportswissapp",
			Name:      "notifications_total",
			Help:      "Notification emails by kind and result.",
		}, []string{"kind", "result"}),
	}

	for _, c := range []prometheus.Collector{
		m.AccessChecks, m.Activations, m.DeviceReplacements, m.KeysGenerated, m.Notifications,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics.New: %w", err)
		}
	}
	return m, nil
}

// MustNew как New, но паникует при ошибке регистрации.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// AccessCheck учитывает онлайн-проверку доступа.
func (m *Metrics) AccessCheck(mode string, allowed bool) {
	if m == nil {
		return
	}
	m.AccessChecks.WithLabelValues(mode, strconv.FormatBool(allowed)).Inc()
}

// Activation учитывает попытку активации ключа с результатом result.
func (m *Metrics) Activation(result string) {
	if m == nil {
		return
	}
	m.Activations.WithLabelValues(result).Inc()
}

// DeviceReplaced учитывает смену активного устройства.
func (m *Metrics) DeviceReplaced() {
	if m == nil {
		return
	}
	m.DeviceReplacements.Inc()
}

// KeysCreated учитывает n сгенерированных ключей.
func (m *Metrics) KeysCreated(n int) {
	if m == nil {
		return
	}
	m.KeysGenerated.Add(float64(n))
}

// Notification учитывает отправку письма.
func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}
