package tracing

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Init installs a jaeger tracer as the opentracing global. Sampler and
// reporter settings come from the JAEGER_* environment variables; without
// them every trace is sampled.
func Init(serviceName string) (io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, errors.Wrap(err, "jaeger config from env")
	}
	cfg.ServiceName = serviceName
	if cfg.Sampler.Type == "" {
		cfg.Sampler.Type = "const"
		cfg.Sampler.Param = 1
	}

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, errors.Wrap(err, "new tracer")
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}
