package metric

// MetricItem - one independently published metric surface. Implementations
// render themselves as a JSON string; the registry never inspects the
// content.
type MetricItem interface {
	JSONString() string
}

type mockMetricItem struct {
	name string
}

func (mock *mockMetricItem) JSONString() string {
	return mock.name
}
