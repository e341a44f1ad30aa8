package observability

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	registry     = prometheus.NewRegistry()

	packetsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tftpwire",
			Subsystem: "codec",
			Name:      "packets_total",
			Help:      "Datagrams decoded into TFTP packets.",
		},
		[]string{"opcode"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tftpwire",
			Subsystem: "codec",
			Name:      "decode_errors_total",
			Help:      "Datagrams rejected by the decoder.",
		},
		[]string{"kind"},
	)
)

// Registry holds the codec metrics. Embedders can expose it with promhttp.
func Registry() *prometheus.Registry {
	RegisterMetrics()
	return registry
}

func RegisterMetrics() {
	registerOnce.Do(func() {
		registry.MustRegister(packetsDecoded, decodeErrors)
	})
}

func RecordPacket(opcode string) {
	RegisterMetrics()
	packetsDecoded.WithLabelValues(opcode).Inc()
}

func RecordDecodeError(kind string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(kind).Inc()
}

// Sample is one counter value from Snapshot.
type Sample struct {
	Name  string
	Label string
	Value float64
}

// Snapshot gathers the current counter values sorted by name and label.
func Snapshot() ([]Sample, error) {
	families, err := Registry().Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			label := ""
			for _, lp := range m.GetLabel() {
				label = lp.GetName() + "=" + lp.GetValue()
			}
			out = append(out, Sample{
				Name:  mf.GetName(),
				Label: label,
				Value: m.GetCounter().GetValue(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}
