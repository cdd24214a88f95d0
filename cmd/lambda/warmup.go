package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

const (
	warmupSource = "warmup"

	// maxWarmupFanOut caps how many extra instances one ping may start.
	maxWarmupFanOut = 10

	// warmupHold keeps this instance busy so self-invocations land on
	// other instances instead of reusing it.
	warmupHold = 75 * time.Millisecond
)

// warmupPing is a scheduled keep-warm event. FanOut asks for that many
// additional instances.
type warmupPing struct {
	Source string `json:"source"`
	FanOut int    `json:"concurrency"`
}

type warmupReply struct {
	Status string `json:"status"`
	Warmed int    `json:"instancesWarmed"`
}

// invoker fires one asynchronous invocation of this function.
type invoker func(ctx context.Context, payload []byte) error

// parseWarmup reports whether event is a keep-warm ping, clamping the
// requested fan-out to [0, maxWarmupFanOut].
func parseWarmup(event json.RawMessage) (warmupPing, bool) {
	var raw struct {
		Source      string  `json:"source"`
		Concurrency float64 `json:"concurrency"`
	}
	if err := json.Unmarshal(event, &raw); err != nil || raw.Source != warmupSource {
		return warmupPing{}, false
	}

	n := int(min(max(raw.Concurrency, 0), maxWarmupFanOut))
	return warmupPing{Source: warmupSource, FanOut: n}, true
}

// warm answers ping locally and starts ping.FanOut more instances through
// invoke. Invocation failures only lower the reported count.
func warm(ctx context.Context, ping warmupPing, invoke invoker) (any, error) {
	warmed := 1
	if ping.FanOut > 0 && invoke != nil {
		warmed += fanOut(ctx, ping.FanOut, invoke)
	}

	time.Sleep(warmupHold)

	return map[string]any{
		"statusCode": 200,
		"body":       warmupReply{Status: "warm", Warmed: warmed},
	}, nil
}

// fanOut invokes n children in parallel and returns how many succeeded.
// Children carry no fan-out so they cannot recurse.
func fanOut(ctx context.Context, n int, invoke invoker) int {
	payload, _ := json.Marshal(warmupPing{Source: warmupSource})

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if invoke(ctx, payload) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return ok
}

// lambdaInvoker builds an invoker for the running function. It returns
// nil outside Lambda or without AWS credentials.
func lambdaInvoker(ctx context.Context) invoker {
	name := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	if name == "" {
		return nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil
	}
	client := lambdasdk.NewFromConfig(cfg)

	return func(ctx context.Context, payload []byte) error {
		_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
			FunctionName:   aws.String(name),
			InvocationType: types.InvocationTypeEvent,
			Payload:        payload,
		})
		if err != nil {
			return errors.Join(errors.New("warmup self-invoke failed"), err)
		}
		return nil
	}
}
