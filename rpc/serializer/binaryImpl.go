package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/grove-db/grove/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasCommand byte = 1 << 0
	hasQuery   byte = 1 << 1
	hasOk      byte = 1 << 2
	hasProps   byte = 1 << 3
	hasPath    byte = 1 << 4
	hasValue   byte = 1 << 5
	hasErr     byte = 1 << 6
	hasMeta    byte = 1 << 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	result[0] = byte(msg.MsgType)

	var flags byte = 0
	pos := 6 // MsgType(1) + flags(1) + Count(4)

	binary.BigEndian.PutUint32(result[2:6], uint32(msg.Count))

	writeBytes := func(data []byte) {
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(data)))
		pos += 4
		if len(data) > 0 {
			copy(result[pos:pos+len(data)], data)
			pos += len(data)
		}
	}

	if msg.Command != nil {
		flags |= hasCommand
		writeBytes(msg.Command)
	}
	if msg.Query != nil {
		flags |= hasQuery
		writeBytes(msg.Query)
	}
	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}
	if msg.Props != nil {
		flags |= hasProps
		writeBytes(msg.Props)
	}
	if msg.Path != nil {
		flags |= hasPath
		writeBytes(msg.Path)
	}
	if msg.Value != nil {
		flags |= hasValue
		writeBytes(msg.Value)
	}
	if msg.Err != "" {
		flags |= hasErr
		writeBytes([]byte(msg.Err))
	}
	if msg.Meta != nil {
		flags |= hasMeta
		writeBytes(msg.Meta)
	}

	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 6 {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	msg.Count = int(binary.BigEndian.Uint32(data[2:6]))

	pos := 6

	readBytes := func(name string) ([]byte, error) {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("data too short for %s length", name)
		}
		length := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
		if pos+int(length) > len(data) {
			return nil, fmt.Errorf("data too short for %s data", name)
		}
		out := make([]byte, length)
		if length > 0 {
			copy(out, data[pos:pos+int(length)])
		}
		pos += int(length)
		return out, nil
	}

	if flags&hasCommand != 0 {
		v, err := readBytes("command")
		if err != nil {
			return err
		}
		msg.Command = v
	} else {
		msg.Command = nil
	}

	if flags&hasQuery != 0 {
		v, err := readBytes("query")
		if err != nil {
			return err
		}
		msg.Query = v
	} else {
		msg.Query = nil
	}

	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	} else {
		msg.Ok = false
	}

	if flags&hasProps != 0 {
		v, err := readBytes("props")
		if err != nil {
			return err
		}
		msg.Props = v
	} else {
		msg.Props = nil
	}

	if flags&hasPath != 0 {
		v, err := readBytes("path")
		if err != nil {
			return err
		}
		msg.Path = v
	} else {
		msg.Path = nil
	}

	if flags&hasValue != 0 {
		v, err := readBytes("value")
		if err != nil {
			return err
		}
		msg.Value = v
	} else {
		msg.Value = nil
	}

	if flags&hasErr != 0 {
		v, err := readBytes("error")
		if err != nil {
			return err
		}
		msg.Err = string(v)
	} else {
		msg.Err = ""
	}

	if flags&hasMeta != 0 {
		v, err := readBytes("meta")
		if err != nil {
			return err
		}
		msg.Meta = v
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := 6 // MsgType + flags + Count

	addBytesField := func(data []byte) {
		size += 4 + len(data)
	}

	if msg.Command != nil {
		addBytesField(msg.Command)
	}
	if msg.Query != nil {
		addBytesField(msg.Query)
	}
	if msg.Ok {
		size += 1
	}
	if msg.Props != nil {
		addBytesField(msg.Props)
	}
	if msg.Path != nil {
		addBytesField(msg.Path)
	}
	if msg.Value != nil {
		addBytesField(msg.Value)
	}
	if msg.Err != "" {
		addBytesField([]byte(msg.Err))
	}
	if msg.Meta != nil {
		addBytesField(msg.Meta)
	}

	return size
}
