package processors

import (
	"context"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
)

// Operation adapts Operation Request messages arriving on a timeline into
// a channel event named after the operation. The contract's name is the
// operation name.
//
// An optional channel restricts requests to those forwarded by that
// channel contract; an optional request node restricts them by the type
// of the request payload.
type Operation struct {
	schema contracts.Decoder
}

// NewOperation returns the Operation processor.
func NewOperation() *Operation {
	return &Operation{schema: contracts.OperationSchema}
}

func (*Operation) ContractType() string        { return contracts.Operation }
func (*Operation) ContractBlueID() blue.BlueID { return contracts.ID(contracts.Operation) }
func (*Operation) Role() engine.Role           { return engine.RoleAdapter }

func (o *Operation) Supports(evt *engine.Event, contract *blue.Node, pctx *engine.ProcessingContext, name string) bool {
	// Its own re-emission must not match again.
	if evt.Source == engine.SourceChannel && evt.ChannelName == name {
		return false
	}
	req := operationRequest(evt.Payload, pctx.Language())
	if req == nil {
		return false
	}
	var spec contracts.OperationRequestSpec
	if err := contracts.OperationRequestSchema.Decode(req, &spec); err != nil || spec.Operation != name {
		return false
	}

	var def contracts.OperationSpec
	if err := o.schema.Decode(contract, &def); err != nil {
		return false
	}
	if def.Channel != "" && (evt.Source != engine.SourceChannel || evt.ChannelName != def.Channel) {
		return false
	}

	pattern := contract.Prop("request")
	if pattern == nil {
		return true
	}
	got := req.Prop("request")
	if got == nil {
		return false
	}
	if pattern.Type == nil {
		return nodeContains(got, pattern)
	}
	lang := pctx.Language()
	return lang.IsTypeOf(got, lang.TypeBlueID(pattern.Type))
}

func (*Operation) Handle(_ context.Context, evt *engine.Event, _ *blue.Node, pctx *engine.ProcessingContext, name string) error {
	pctx.EmitEvent(&engine.Event{
		Payload:     evt.Payload,
		Source:      engine.SourceChannel,
		ChannelName: name,
	})
	return nil
}

// operationRequest returns the Operation Request message of a Timeline
// Entry payload, or nil.
func operationRequest(payload *blue.Node, lang engine.Language) *blue.Node {
	if !lang.IsTypeOf(payload, contracts.ID(contracts.TimelineEntry)) {
		return nil
	}
	msg := payload.Prop("message")
	if msg == nil || !lang.IsTypeOf(msg, contracts.ID(contracts.OperationRequest)) {
		return nil
	}
	return msg
}
