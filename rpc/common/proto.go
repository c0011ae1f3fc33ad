package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses
// on the RPC transport. Which fields are used depends on MsgType.
//
// Command and Query carry a gob-encoded RPCCommand/RPCQuery (see command.go)
// regardless of which IRPCSerializer the transport is configured with: the
// outer Message fields (MsgType, Ok, Err, Count, ...) are simple scalars any
// serializer can handle, but a Pattern/Payload/Condition tree needs gob's
// interface-aware encoding, so it always travels pre-encoded as bytes.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	Command []byte `json:"command,omitempty"` // gob-encoded RPCCommand, used for write operations
	Query   []byte `json:"query,omitempty"`   // gob-encoded RPCQuery, used for read operations

	// Response only fields
	Ok    bool   `json:"ok,omitempty"`    // Used for: Exists responses
	Count int    `json:"count,omitempty"` // Used for: DeleteMany, Count responses
	Props []byte `json:"props,omitempty"` // gob-encoded path.NodeProps, used for: Get responses
	Path  []byte `json:"path,omitempty"`  // gob-encoded path.Path, used for: Put/Create/Update/CompareAndSwap/DeletePayload responses
	Value []byte `json:"value,omitempty"` // gob-encoded value, used for: RunStoredProc, GetDBInfo, PutMany (map[string]path.NodeProps) responses
	Err   string `json:"err,omitempty"`   // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewWriteRequest wraps a gob-encoded RPCCommand in a request Message.
func NewWriteRequest(msgType MessageType, cmd []byte) *Message {
	return &Message{MsgType: msgType, Command: cmd}
}

// NewReadRequest wraps a gob-encoded RPCQuery in a request Message.
func NewReadRequest(msgType MessageType, q []byte) *Message {
	return &Message{MsgType: msgType, Query: q}
}

// NewPathResponse creates a response carrying a gob-encoded path.Path, used
// by Put/Create/Update/CompareAndSwap/DeletePayload.
func NewPathResponse(msgType MessageType, p []byte, err error) *Message {
	msg := &Message{MsgType: msgType, Path: p}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewAckResponse creates a plain success/error acknowledgement, used by
// Delete and RegisterTrigger.
func NewAckResponse(msgType MessageType, err error) *Message {
	msg := &Message{MsgType: msgType}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewCountResponse creates a response carrying a count, used by DeleteMany and Count.
func NewCountResponse(msgType MessageType, count int, err error) *Message {
	msg := &Message{MsgType: msgType, Count: count}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewPropsResponse creates a response carrying a gob-encoded path.NodeProps, used by Get.
func NewPropsResponse(props []byte, err error) *Message {
	msg := &Message{MsgType: MsgTGet, Props: props}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewOkResponse creates a response carrying a boolean, used by Exists.
func NewOkResponse(msgType MessageType, ok bool, err error) *Message {
	msg := &Message{MsgType: msgType, Ok: ok}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewValueResponse creates a response carrying a gob-encoded value, used by
// RunStoredProc and GetDBInfo.
func NewValueResponse(msgType MessageType, value []byte, err error) *Message {
	msg := &Message{MsgType: msgType, Value: value}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewMatchesResponse creates a response carrying a gob-encoded
// map[string]path.NodeProps, used by PutMany.
func NewMatchesResponse(matches []byte, err error) *Message {
	msg := &Message{MsgType: MsgTPutMany, Value: matches}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTPut:
		return "put"
	case MsgTPutMany:
		return "putMany"
	case MsgTCreate:
		return "create"
	case MsgTUpdate:
		return "update"
	case MsgTCompareAndSwap:
		return "compareAndSwap"
	case MsgTDelete:
		return "delete"
	case MsgTDeleteMany:
		return "deleteMany"
	case MsgTDeletePayload:
		return "deletePayload"
	case MsgTGet:
		return "get"
	case MsgTExists:
		return "exists"
	case MsgTCount:
		return "count"
	case MsgTRegisterTrigger:
		return "registerTrigger"
	case MsgTRunStoredProc:
		return "runStoredProc"
	case MsgTGetDBInfo:
		return "getDBInfo"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "put":
		*t = MsgTPut
	case "putMany":
		*t = MsgTPutMany
	case "create":
		*t = MsgTCreate
	case "update":
		*t = MsgTUpdate
	case "compareAndSwap":
		*t = MsgTCompareAndSwap
	case "delete":
		*t = MsgTDelete
	case "deleteMany":
		*t = MsgTDeleteMany
	case "deletePayload":
		*t = MsgTDeletePayload
	case "get":
		*t = MsgTGet
	case "exists":
		*t = MsgTExists
	case "count":
		*t = MsgTCount
	case "registerTrigger":
		*t = MsgTRegisterTrigger
	case "runStoredProc":
		*t = MsgTRunStoredProc
	case "getDBInfo":
		*t = MsgTGetDBInfo
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ITreeStore mutations

	MsgTPut            // Put
	MsgTPutMany        // PutMany
	MsgTCreate         // Create
	MsgTUpdate         // Update
	MsgTCompareAndSwap // CompareAndSwap
	MsgTDelete         // Delete
	MsgTDeleteMany     // DeleteMany
	MsgTDeletePayload  // DeletePayload

	// ITreeStore reads

	MsgTGet    // Get
	MsgTExists // Exists
	MsgTCount  // Count

	// ITreeStore dispatch and procedures

	MsgTRegisterTrigger // RegisterTrigger (RegisterProjection has no RPC form, see rpc/client)
	MsgTRunStoredProc   // RunStoredProc

	// Misc

	MsgTGetDBInfo // GetDBInfo

	// Custom operations

	MsgTCustom // Custom operation type
)
