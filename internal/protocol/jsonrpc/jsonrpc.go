// Package jsonrpc implements AWS's "json" protocol family (DynamoDB, STS
// alternatives, and other JSON-RPC 1.0/1.1 services): the whole input
// structure is the POST body, with the operation name carried in the
// X-Amz-Target header rather than the URL.
package jsonrpc

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nyaws/awsclient/internal/model"
	"github.com/nyaws/awsclient/internal/protocol"
	"github.com/nyaws/awsclient/internal/shape"
)

func init() {
	protocol.Register("json", jsonRPC{})
}

type jsonRPC struct{}

func (jsonRPC) BuildRequest(svc *model.Service, op *model.Operation, input interface{}) (*protocol.Request, error) {
	m, _ := input.(map[string]interface{})
	if m == nil {
		m = map[string]interface{}{}
	}

	encoded, err := shape.EncodeJSON(svc, op.InputShape, m)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: encode body: %w", err)
	}

	version := svc.Metadata.JSONVersion
	if version == "" {
		version = "1.1"
	}
	header := http.Header{}
	header.Set("Content-Type", fmt.Sprintf("application/x-amz-json-%s", version))
	target := svc.Metadata.TargetPrefix
	if target != "" {
		header.Set("X-Amz-Target", target+"."+op.Name)
	}

	return &protocol.Request{
		Method: "POST",
		Path:   "/",
		Header: header,
		Body:   body,
	}, nil
}

func (jsonRPC) ParseResponse(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) (interface{}, error) {
	body = shape.StripBOM(body)
	if op.OutputShape == "" || len(body) == 0 {
		return map[string]interface{}{}, nil
	}
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("jsonrpc: decode body: %w", err)
	}
	return shape.DecodeJSON(svc, op.OutputShape, raw)
}

func (jsonRPC) ParseError(svc *model.Service, op *model.Operation, status int, header http.Header, body []byte) *protocol.ErrorInfo {
	info := &protocol.ErrorInfo{StatusCode: status}
	body = shape.StripBOM(body)
	var raw map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err == nil {
			if c, ok := raw["__type"].(string); ok {
				info.Code = c
			} else if c, ok := raw["code"].(string); ok {
				info.Code = c
			}
			if m, ok := raw["message"].(string); ok {
				info.Message = m
			} else if m, ok := raw["Message"].(string); ok {
				info.Message = m
			}
		}
	}
	return info
}
