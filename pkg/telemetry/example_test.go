package telemetry_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// Example_basicSetup demonstrates basic telemetry setup.
func Example_basicSetup() {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = "1.0.0"
	cfg.Logging.Level = "disabled"

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())
	telemetry.FromContext(ctx).Info("complyctl started")

	fmt.Println("telemetry ready")
	// Output: telemetry ready
}

// Example_instrumentedOperation demonstrates wrapping one facade call.
func Example_instrumentedOperation() {
	tel := telemetry.Nop()
	ctx := tel.WithContext(context.Background())

	op := telemetry.StartOperation(ctx, "risks.update",
		telemetry.AttrEntityID.String("r1"),
	)
	op.Logger.Debug("updating risk")
	op.End(errors.New("storage unavailable"))

	fmt.Println("operation recorded")
	// Output: operation recorded
}

// Example_eventPublishing demonstrates subscribing to domain events.
func Example_eventPublishing() {
	events, err := telemetry.NewEventPublisher(telemetry.EventsConfig{Enabled: true, BufferSize: 8})
	if err != nil {
		panic(err)
	}

	received := make(chan telemetry.Event, 1)
	events.Subscribe(func(e telemetry.Event) {
		received <- e
	}, telemetry.FilterByType(telemetry.EventTypeRiskDetected))

	_ = events.PublishMutation(telemetry.EventTypeRiskDetected, "sarah@complyeasy.ai", "r9", "Risk r9 created")
	e := <-received
	_ = events.Shutdown(context.Background())

	fmt.Println(e.Type, e.EntityID)
	// Output: risk.detected r9
}
