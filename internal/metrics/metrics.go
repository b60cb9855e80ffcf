// Package metrics 提供Prometheus文本格式的监控指标
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry 指标注册表
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 只增计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 可增可减仪表
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *Registry
	once     sync.Once
)

// GetRegistry 获取全局注册表
func GetRegistry() *Registry {
	once.Do(func() {
		registry = &Registry{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
		initDefaultMetrics()
	})
	return registry
}

// initDefaultMetrics 初始化默认指标
func initDefaultMetrics() {
	registry.NewCounter("paigang_http_requests_total", "HTTP请求总数", []string{"method", "path", "status"})

	registry.NewHistogram("paigang_http_request_duration_seconds", "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})

	// 排班求解计数与延迟
	registry.NewCounter("paigang_roster_solve_total", "排班求解次数", []string{"status"})
	registry.NewHistogram("paigang_roster_solve_duration_seconds", "排班求解延迟",
		[]string{"status"},
		[]float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0})

	// 当前进行中的求解数
	registry.NewGauge("paigang_active_solves", "当前进行中的求解数", []string{})

	// 方案质量
	registry.NewGauge("paigang_solution_score", "方案总分", []string{"org_id"})
	registry.NewGauge("paigang_coverage_rate", "班次覆盖率", []string{"org_id"})
	registry.NewGauge("paigang_fairness_score", "班次分布公平度", []string{"org_id"})

	// 数据库连接池
	registry.NewGauge("paigang_db_connections", "数据库连接数", []string{"state"})
}

// NewCounter 创建计数器
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := &Counter{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.counters[name] = counter
	return counter
}

// NewGauge 创建仪表
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	gauge := &Gauge{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.gauges[name] = gauge
	return gauge
}

// NewHistogram 创建直方图
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	histogram := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = histogram
	return histogram
}

// GetCounter 获取计数器
func (r *Registry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge 获取仪表
func (r *Registry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram 获取直方图
func (r *Registry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 计数加一
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 计数增加指定值
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Set 设置仪表值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Inc 仪表加一
func (g *Gauge) Inc(labelValues ...string) {
	g.Add(1, labelValues...)
}

// Dec 仪表减一
func (g *Gauge) Dec(labelValues ...string) {
	g.Add(-1, labelValues...)
}

// Add 仪表增加指定值
func (g *Gauge) Add(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] += value
}

// Observe 记录直方图观测值
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	if _, exists := h.counts[key]; !exists {
		h.counts[key] = make([]int, len(h.Buckets)+1)
	}

	for i, bucket := range h.Buckets {
		if value <= bucket {
			h.counts[key][i]++
		}
	}
	h.counts[key][len(h.Buckets)]++ // +Inf bucket

	h.sums[key] += value
}

// labelKey 生成标签键
func labelKey(labels []string) string {
	return strings.Join(labels, ",")
}

// Handler 返回Prometheus文本格式的指标HTTP处理器
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		reg := GetRegistry()
		reg.mu.RLock()
		defer reg.mu.RUnlock()

		for _, name := range sortedKeys(reg.counters) {
			reg.counters[name].write(w)
		}
		for _, name := range sortedKeys(reg.gauges) {
			reg.gauges[name].write(w)
		}
		for _, name := range sortedKeys(reg.histograms) {
			reg.histograms[name].write(w)
		}
	})
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Counter) write(w http.ResponseWriter) {
	fmt.Fprintf(w, "# HELP %s %s\n", c.Name, c.Help)
	fmt.Fprintf(w, "# TYPE %s counter\n", c.Name)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for key, value := range c.values {
		if key == "" {
			fmt.Fprintf(w, "%s %f\n", c.Name, value)
		} else {
			fmt.Fprintf(w, "%s{%s} %f\n", c.Name, formatLabels(c.Labels, key), value)
		}
	}
}

func (g *Gauge) write(w http.ResponseWriter) {
	fmt.Fprintf(w, "# HELP %s %s\n", g.Name, g.Help)
	fmt.Fprintf(w, "# TYPE %s gauge\n", g.Name)

	g.mu.RLock()
	defer g.mu.RUnlock()
	for key, value := range g.values {
		if key == "" {
			fmt.Fprintf(w, "%s %f\n", g.Name, value)
		} else {
			fmt.Fprintf(w, "%s{%s} %f\n", g.Name, formatLabels(g.Labels, key), value)
		}
	}
}

func (h *Histogram) write(w http.ResponseWriter) {
	fmt.Fprintf(w, "# HELP %s %s\n", h.Name, h.Help)
	fmt.Fprintf(w, "# TYPE %s histogram\n", h.Name)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for key, counts := range h.counts {
		cumulative := 0
		for i, bucket := range h.Buckets {
			cumulative += counts[i]
			if key == "" {
				fmt.Fprintf(w, "%s_bucket{le=\"%f\"} %d\n", h.Name, bucket, cumulative)
			} else {
				fmt.Fprintf(w, "%s_bucket{%s,le=\"%f\"} %d\n", h.Name, formatLabels(h.Labels, key), bucket, cumulative)
			}
		}
		cumulative += counts[len(h.Buckets)]
		if key == "" {
			fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.Name, cumulative)
			fmt.Fprintf(w, "%s_sum %f\n", h.Name, h.sums[key])
			fmt.Fprintf(w, "%s_count %d\n", h.Name, cumulative)
		} else {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"+Inf\"} %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
			fmt.Fprintf(w, "%s_sum{%s} %f\n", h.Name, formatLabels(h.Labels, key), h.sums[key])
			fmt.Fprintf(w, "%s_count{%s} %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
		}
	}
}

// formatLabels 格式化标签
func formatLabels(names []string, values string) string {
	vals := strings.Split(values, ",")
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	return strings.Join(parts, ",")
}

// RecordRequestMetrics 记录HTTP请求指标
func RecordRequestMetrics(method, path string, status int, duration time.Duration) {
	reg := GetRegistry()

	if counter := reg.GetCounter("paigang_http_requests_total"); counter != nil {
		counter.Inc(method, path, fmt.Sprintf("%d", status))
	}
	if histogram := reg.GetHistogram("paigang_http_request_duration_seconds"); histogram != nil {
		histogram.Observe(duration.Seconds(), method, path)
	}
}

// RecordSolve 记录一次排班求解
func RecordSolve(status string, duration time.Duration) {
	reg := GetRegistry()

	if counter := reg.GetCounter("paigang_roster_solve_total"); counter != nil {
		counter.Inc(status)
	}
	if histogram := reg.GetHistogram("paigang_roster_solve_duration_seconds"); histogram != nil {
		histogram.Observe(duration.Seconds(), status)
	}
}

// SolveStarted 标记一次求解开始
func SolveStarted() {
	if gauge := GetRegistry().GetGauge("paigang_active_solves"); gauge != nil {
		gauge.Inc()
	}
}

// SolveFinished 标记一次求解结束
func SolveFinished() {
	if gauge := GetRegistry().GetGauge("paigang_active_solves"); gauge != nil {
		gauge.Dec()
	}
}

// SetSolutionQuality 记录方案质量指标
func SetSolutionQuality(orgID string, score, coverage, fairness float64) {
	reg := GetRegistry()

	if gauge := reg.GetGauge("paigang_solution_score"); gauge != nil {
		gauge.Set(score, orgID)
	}
	if gauge := reg.GetGauge("paigang_coverage_rate"); gauge != nil {
		gauge.Set(coverage, orgID)
	}
	if gauge := reg.GetGauge("paigang_fairness_score"); gauge != nil {
		gauge.Set(fairness, orgID)
	}
}

// SetDBConnections 记录数据库连接池状态
func SetDBConnections(state string, count int) {
	if gauge := GetRegistry().GetGauge("paigang_db_connections"); gauge != nil {
		gauge.Set(float64(count), state)
	}
}
