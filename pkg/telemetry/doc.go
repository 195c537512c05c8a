// Package telemetry provides observability for complyeasy.
//
// It bundles structured logging (zerolog), tracing (OpenTelemetry), metrics
// (Prometheus) and an in-process domain event publisher:
//
//	tel, err := telemetry.NewTelemetry(telemetry.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//	op := telemetry.StartOperation(ctx, "risks.update")
//	err = doWork(op.Ctx)
//	op.End(err)
//
// Every facade call is one operation: a span, a call counter sample and a
// duration observation. Mutations additionally publish an Event.
//
// # Metrics
//
//   - complyeasy_facade_calls_total{operation,outcome}
//   - complyeasy_facade_call_duration_seconds{operation}
//   - complyeasy_errors_total{kind}
//   - complyeasy_audit_entries_recorded_total
//   - complyeasy_audit_failures_total{operation}
//   - complyeasy_store_corrupt_collections_total{collection}
//   - complyeasy_store_collection_records{collection}
//   - complyeasy_ai_calls_total{feature,outcome}
//   - complyeasy_ai_call_duration_seconds{feature}
//
// A Metrics value created with metrics disabled, or a nil *Metrics, accepts
// every Record call and does nothing.
package telemetry
