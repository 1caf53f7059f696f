package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nyaws/awsclient/anomaly"
	"github.com/nyaws/awsclient/credentials"
	"github.com/nyaws/awsclient/internal/endpoint"
	"github.com/nyaws/awsclient/internal/model"
	"github.com/nyaws/awsclient/internal/signer/s3v4"
	"github.com/nyaws/awsclient/internal/signer/v4"
	"github.com/nyaws/awsclient/internal/transport"
	"github.com/nyaws/awsclient/internal/validate"
	"github.com/nyaws/awsclient/retry"
)

// Invoke runs opName synchronously, blocking until a final (possibly
// retried) result is available.
func (c *Client) Invoke(ctx context.Context, opName string, input interface{}) (interface{}, error) {
	resultCh := make(chan invokeResult, 1)
	c.InvokeAsync(ctx, opName, input, func(v interface{}, err error) {
		resultCh <- invokeResult{v, err}
	})
	select {
	case r := <-resultCh:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type invokeResult struct {
	value interface{}
	err   error
}

// InvokeAsync runs opName without blocking; callback fires exactly once
// with the final outcome once the retry loop settles.
func (c *Client) InvokeAsync(ctx context.Context, opName string, input interface{}, callback func(interface{}, error)) {
	traceID := uuid.NewString()
	op, ok := c.svc.Operations[opName]
	if !ok {
		callback(nil, anomaly.New(anomaly.Unsupported, fmt.Sprintf("operation %q is not defined", opName),
			anomaly.WithData("trace_id", traceID)))
		return
	}

	if err := validate.Request(c.svc, op, input); err != nil {
		opts := []anomaly.Option{anomaly.WithData("trace_id", traceID)}
		if verr, ok := err.(*validate.Error); ok {
			opts = append(opts, anomaly.WithData("problems", verr.Violations))
		}
		callback(nil, anomaly.New(anomaly.Incorrect, err.Error(), opts...))
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				callback(nil, anomaly.AsFault(fmt.Errorf("invoke: panic: %v", r)))
			}
		}()
		result := retry.Run(ctx, func(ctx context.Context, attempt int, correlationID string, sink func(retry.Result)) {
			c.logger.WithFields(logrus.Fields{
				"operation":      opName,
				"attempt":        attempt,
				"correlation_id": correlationID,
				"trace_id":       traceID,
			}).Debug("invoking operation")
			c.attempt(ctx, op, input, traceID, correlationID, sink)
		}, isRetriable, c.backoffOrDefault())

		if result.Err != nil {
			callback(nil, result.Err)
			return
		}
		if a, ok := result.Value.(*anomaly.Anomaly); ok {
			if a.Category == anomaly.Fault {
				c.logger.WithFields(logrus.Fields{
					"operation": opName,
					"trace_id":  traceID,
					"category":  a.Category,
				}).Warn(a.Message)
			} else {
				c.logger.WithFields(logrus.Fields{
					"operation": opName,
					"trace_id":  traceID,
					"category":  a.Category,
				}).Debug("operation failed")
			}
			callback(nil, a)
			return
		}
		callback(result.Value, nil)
	}()
}

func (c *Client) backoffOrDefault() retry.Backoff {
	if c.backoff != nil {
		return c.backoff
	}
	return retry.DefaultBackoff
}

func isRetriable(r retry.Result) bool {
	if r.Err != nil {
		return false
	}
	a, ok := r.Value.(*anomaly.Anomaly)
	if !ok {
		return false
	}
	return anomaly.Retriable(a)
}

// attempt runs one pass of the pipeline: concurrent region+credential
// resolution, endpoint resolution (observing region), request building,
// signing (observing endpoint+credentials), and submission.
func (c *Client) attempt(ctx context.Context, op *model.Operation, input interface{}, traceID, correlationID string, sink func(retry.Result)) {
	type regionResult struct {
		region string
		err    error
	}
	type credsResult struct {
		value credentials.Value
		err   error
	}

	regionCh := make(chan regionResult, 1)
	credsCh := make(chan credsResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				regionCh <- regionResult{"", anomaly.AsFault(fmt.Errorf("resolve region: panic: %v", r))}
			}
		}()
		r, err := c.region.Retrieve(ctx)
		regionCh <- regionResult{r, err}
	}()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				credsCh <- credsResult{credentials.Value{}, anomaly.AsFault(fmt.Errorf("resolve credentials: panic: %v", r))}
			}
		}()
		v, err := c.creds.Retrieve(ctx)
		credsCh <- credsResult{v, err}
	}()

	regionRes := <-regionCh
	credsRes := <-credsCh

	if regionRes.err != nil {
		if a, ok := regionRes.err.(*anomaly.Anomaly); ok {
			sink(retry.Result{Value: a})
		} else {
			sink(retry.Result{Value: anomaly.New(anomaly.Fault, "resolve region: "+regionRes.err.Error())})
		}
		return
	}
	if credsRes.err != nil {
		if a, ok := credsRes.err.(*anomaly.Anomaly); ok {
			sink(retry.Result{Value: a})
		} else {
			sink(retry.Result{Value: anomaly.New(anomaly.Fault, "resolve credentials: "+credsRes.err.Error())})
		}
		return
	}
	creds := credsRes.value

	ep, err := endpoint.Resolve(c.svc, regionRes.region, c.endpoint)
	if err != nil {
		sink(retry.Result{Value: anomaly.New(anomaly.Fault, "resolve endpoint: "+err.Error())})
		return
	}

	req, err := c.proto.BuildRequest(c.svc, op, input)
	if err != nil {
		sink(retry.Result{Value: anomaly.New(anomaly.Incorrect, "build request: "+err.Error())})
		return
	}

	fullURL := ep.URL + req.Path
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, nil)
	if err != nil {
		sink(retry.Result{Value: anomaly.New(anomaly.Fault, "new request: "+err.Error())})
		return
	}
	for k, vv := range req.Header {
		for _, v := range vv {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.URL.RawQuery = req.Query
	httpReq.Header.Set("X-Amz-Trace-Id", traceID)
	httpReq.Header.Set("X-Amz-Retry-Correlation-Id", correlationID)

	signingName := c.svc.Metadata.SigningName
	now := time.Now()
	switch c.svc.Metadata.SignatureVersion {
	case "s3v4":
		s3v4.Sign(httpReq, req.Body, s3v4.Credentials{
			AccessKeyID:     creds.AccessKeyID,
			SecretAccessKey: creds.SecretAccessKey,
			SessionToken:    creds.SessionToken,
		}, ep.SigningRegion, signingName, now, false)
	default:
		v4.Sign(httpReq, req.Body, v4.Credentials{
			AccessKeyID:     creds.AccessKeyID,
			SecretAccessKey: creds.SecretAccessKey,
			SessionToken:    creds.SessionToken,
		}, ep.SigningRegion, signingName, now)
	}
	req.Header = httpReq.Header
	req.Path = httpReq.URL.EscapedPath()
	req.Query = httpReq.URL.RawQuery
	httpReq.Body = NewRestartableBody(req.Body)
	httpReq.ContentLength = int64(len(req.Body))

	c.transport.Submit(ctx, ep.URL, req, func(resp transport.Response, err error) {
		if err != nil {
			sink(retry.Result{Value: anomaly.New(anomaly.Unavailable, "submit: "+err.Error())})
			return
		}
		meta := newResponseMetadata(httpReq, resp.StatusCode, resp.Header, resp.Body)
		if resp.StatusCode >= 400 {
			info := c.proto.ParseError(c.svc, op, resp.StatusCode, resp.Header, resp.Body)
			a := classifyError(info)
			a.Data = mergeData(a.Data, "http_metadata", meta)
			sink(retry.Result{Value: a})
			return
		}
		out, err := c.proto.ParseResponse(c.svc, op, resp.StatusCode, resp.Header, resp.Body)
		if err != nil {
			sink(retry.Result{Value: anomaly.New(anomaly.Fault, "parse response: "+err.Error(), anomaly.WithData("http_metadata", meta))})
			return
		}
		if m, ok := out.(map[string]interface{}); ok {
			m["ResponseMetadata"] = meta
		}
		sink(retry.Result{Value: out})
	})
}

func mergeData(data map[string]interface{}, key string, value interface{}) map[string]interface{} {
	if data == nil {
		data = map[string]interface{}{}
	}
	data[key] = value
	return data
}
