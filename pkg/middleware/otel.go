package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/store"
)

// Default tracer name for the store.
const defaultTracerName = "popcorn/store"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "popcorn/store").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which actions to trace.
	// If nil, all actions are traced.
	Filter func(action store.Action) bool

	// AttributeExtractor extracts custom attributes from an action.
	AttributeExtractor func(action store.Action) []attribute.KeyValue

	// TraceThunks also opens a span around thunks, so the actions they
	// dispatch become child spans.
	TraceThunks bool

	// ActionTypes, when set, bounds span names and the store.action_type
	// attribute: any other action type is reported as OtherActionType.
	ActionTypes []string

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithActionFilter sets a filter function for actions.
func WithActionFilter(filter func(action store.Action) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(action store.Action) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithTraceThunks enables spans around thunks. It only has an effect when
// OpenTelemetry is placed before Thunk in the chain.
func WithTraceThunks(enabled bool) OTelOption {
	return func(c *OTelConfig) {
		c.TraceThunks = enabled
	}
}

// WithSpanActionTypes bounds span names to types.
func WithSpanActionTypes(types ...string) OTelOption {
	return func(c *OTelConfig) {
		c.ActionTypes = append(c.ActionTypes, types...)
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every dispatch.
//
// The middleware:
//   - Creates a span per action named "store.dispatch <type>"
//   - Passes the span context down the chain through ctx
//   - Records errors and sets span status
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracerProvider is given.
func OpenTelemetry(opts ...OTelOption) store.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}
	label := actionLabeler(config.ActionTypes)

	return func(api store.API) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(ctx context.Context, v any) (any, error) {
				action, ok := plainAction(v)
				if !ok {
					if config.TraceThunks && IsThunk(v) {
						return traced(ctx, config.tracer, "store.thunk", nil, func(ctx context.Context) (any, error) {
							return next(ctx, v)
						})
					}
					return next(ctx, v)
				}

				if config.Filter != nil && !config.Filter(action) {
					return next(ctx, v)
				}

				actionType := label(action.Type)
				attrs := []attribute.KeyValue{
					attribute.String("store.action_type", actionType),
				}
				if config.AttributeExtractor != nil {
					attrs = append(attrs, config.AttributeExtractor(action)...)
				}

				return traced(ctx, config.tracer, "store.dispatch "+actionType, attrs, func(ctx context.Context) (any, error) {
					return next(ctx, v)
				})
			}
		}
	}
}

func traced(ctx context.Context, tracer trace.Tracer, name string, attrs []attribute.KeyValue, fn func(context.Context) (any, error)) (any, error) {
	spanCtx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	result, err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := errors.CodeOf(err); code != "" {
			span.SetAttributes(attribute.String("store.error_code", code))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return result, err
}

// SpanFromContext returns the span of the dispatch ctx belongs to, or nil
// when ctx carries no recording span.
func SpanFromContext(ctx context.Context) trace.Span {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}
