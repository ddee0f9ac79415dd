package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelController     = "controller"
	ProfilingLabelRoute          = "route"
	ProfilingLabelMethod         = "method"
	ProfilingLabelOperation      = "operation"
	ProfilingLabelRegion         = "region"
	ProfilingLabelIntakePath     = "intake_path"
	ProfilingLabelAttachmentKind = "attachment_kind"
)

// MaxLabelValueLength caps label values
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped from profiling labels. Do not modify at
// runtime.
var HighCardinalityLabels = map[string]bool{
	"request_id":     true,
	"trace_id":       true,
	"span_id":        true,
	"customer_id":    true,
	"sales_invoice":  true,
	"payment_entry":  true,
	"idempotency_id": true,
}

// WithProfilingLabels runs fn with pprof labels that Pyroscope attaches to
// the samples taken inside it. Labels are copied and sanitized first.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(maps.Clone(labels))
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// HTTPRequestLabels labels a request by handler, route pattern and method
func HTTPRequestLabels(controller, route, method string) map[string]string {
	labels := make(map[string]string, 3)
	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	return labels
}

// IntakeLabels labels one payment submission by its resolution path and the
// kind of proof attachment it carries ("none" without one).
func IntakeLabels(path, attachmentKind string) map[string]string {
	if attachmentKind == "" {
		attachmentKind = "none"
	}
	return map[string]string{
		ProfilingLabelOperation:      "payment.submit",
		ProfilingLabelIntakePath:     path,
		ProfilingLabelAttachmentKind: attachmentKind,
	}
}

// ProfileIntake runs one submission under IntakeLabels
func ProfileIntake(ctx context.Context, path, attachmentKind string, fn func(context.Context)) {
	WithProfilingLabels(ctx, IntakeLabels(path, attachmentKind), fn)
}

// RegionLabels labels a code region such as "pdf_render"
func RegionLabels(region string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	maps.Copy(labels, extra)
	labels[ProfilingLabelRegion] = region
	return labels
}

// sanitizeLabels drops empty and high-cardinality labels, truncates long
// values and returns key/value pairs sorted by key.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		sanitized := sanitizeLabelKey(key)
		if sanitized == "" {
			continue
		}
		pairs = append(pairs, sanitized, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases key and keeps only [a-z0-9_]
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
