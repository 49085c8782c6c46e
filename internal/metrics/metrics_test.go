package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/hybridation-api/internal/generation"
	"github.com/Conceptual-Machines/hybridation-api/internal/llm"
)

type fakePutter struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakePutter) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (f *fakePutter) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.inputs))
	for _, in := range f.inputs {
		names = append(names, aws.ToString(in.MetricData[0].MetricName))
	}
	return names
}

func TestNewClientDisabledOutsideProduction(t *testing.T) {
	client := NewClient(context.Background(), "development")

	assert.False(t, client.Enabled())
	assert.NotPanics(t, func() {
		client.RecordAPIRequest("/health", 200, time.Millisecond)
		client.RecordGeneration("panoramic", "gemini", time.Second, true)
		client.RecordProviderSwitch("generate")
	})
}

func TestNilClientIsNoop(t *testing.T) {
	var client *Client
	assert.NotPanics(t, func() { client.RecordAPIRequest("/shop", 500, time.Second) })
}

func TestClientRecordsAPIRequest(t *testing.T) {
	putter := &fakePutter{}
	client := &Client{client: putter, enabled: true, environment: "production"}

	client.RecordAPIRequest("/generate", 503, 2*time.Second)

	require.Eventually(t, func() bool { return len(putter.names()) == 2 }, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"APIErrors", "APILatency"}, putter.names())

	in := putter.inputs[0]
	assert.Equal(t, namespace, aws.ToString(in.Namespace))
	dims := in.MetricData[0].Dimensions
	require.Len(t, dims, 2)
	assert.Equal(t, "Environment", aws.ToString(dims[1].Name))
	assert.Equal(t, "production", aws.ToString(dims[1].Value))
}

func TestRecorderObservesProviderCalls(t *testing.T) {
	recorder := NewRecorder(nil, nil)
	labels := []string{"openai", "secondary", "generate", "success", ""}
	before := testutil.ToFloat64(ProviderCallsTotal.WithLabelValues(labels...))
	switches := testutil.ToFloat64(ProviderFallbacksTotal.WithLabelValues("generate", "gemini", "openai"))

	var observer generation.Observer = recorder
	observer.ProviderAttempted(context.Background(), generation.ProviderAttempt{
		Stage:    llm.StageGenerate,
		Provider: "openai",
		Role:     generation.RoleSecondary,
		Outcome:  generation.OutcomeSuccess,
		Duration: 3 * time.Second,
	})
	observer.ProviderSwitched(context.Background(), llm.StageGenerate, "gemini", "openai")

	assert.Equal(t, before+1, testutil.ToFloat64(ProviderCallsTotal.WithLabelValues(labels...)))
	assert.Equal(t, switches+1, testutil.ToFloat64(ProviderFallbacksTotal.WithLabelValues("generate", "gemini", "openai")))
}

func TestRecorderAPIRequestAndGeneration(t *testing.T) {
	recorder := NewRecorder(nil, nil)
	requests := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/generate", "200"))
	runs := testutil.ToFloat64(GenerationsTotal.WithLabelValues("panoramic", "gemini", "true"))

	recorder.RecordAPIRequest(context.Background(), "/generate", 200, time.Second)
	recorder.RecordGeneration(context.Background(), "panoramic", "gemini", time.Second, true)

	assert.Equal(t, requests+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/generate", "200")))
	assert.Equal(t, runs+1, testutil.ToFloat64(GenerationsTotal.WithLabelValues("panoramic", "gemini", "true")))
}
