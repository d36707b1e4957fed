// Package telemetry provides the request telemetry model and client for webtrack.
//
// # Overview
//
// This package defines the Request record produced for every tracked server
// request, the per-request RequestContext that carries the record while the
// request is in flight, and the Client that hands finished records to a
// delivery channel. Channels batch records and forward them to a collector
// over HTTP or NATS.
//
// # Usage
//
// Create a client and track a record:
//
//	cfg := telemetry.NewDefaultConfiguration()
//	cfg.InstrumentationKey = "00000000-0000-0000-0000-000000000000"
//	client, err := telemetry.NewClient(cfg, nil, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(context.Background())
//
//	req := telemetry.NewRequest("GET /orders", "https://shop.example/orders")
//	req.ResponseCode = 200
//	req.Success = true
//	client.Track(req)
//
// # Configuration
//
//	telemetry:
//	  instrumentation_key: "..."
//	  transport: "http"
//	  endpoint: "http://localhost:8600/v1/track"
//	  max_batch_size: 100
//	  flush_interval: "5s"
//
// # Error Handling
//
// Delivery is best effort. Send returns an error when the channel buffer is
// full or the channel is closed; transmit failures are logged and the batch
// is dropped. Telemetry never crashes the host application.
//
// # Testing
//
// Use CaptureChannel to assert on tracked records without network I/O:
//
//	ch := telemetry.NewCaptureChannel()
//	client, _ := telemetry.NewClient(cfg, ch, nil)
//	client.Track(telemetry.NewRequest("GET /", "http://localhost/"))
//	require.Len(t, ch.Requests(), 1)
package telemetry
