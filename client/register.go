package client

// Blank-imported for their init() side effects: each protocol subpackage
// registers itself with internal/protocol so New can look it up by the
// name a service descriptor declares.
import (
	_ "github.com/nyaws/awsclient/internal/protocol/ec2"
	_ "github.com/nyaws/awsclient/internal/protocol/jsonrpc"
	_ "github.com/nyaws/awsclient/internal/protocol/query"
	_ "github.com/nyaws/awsclient/internal/protocol/restjson"
	_ "github.com/nyaws/awsclient/internal/protocol/restxml"
)
