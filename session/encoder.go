package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Binary layout, version 1:
//
//	version (1) | flags (1) | len+UserID | len+Username | len+Email |
//	CreatedAt (8, BE) | ExpiresAt (8, BE)
//
// The SessionID is the Redis key and is not part of the blob; Decode leaves
// it empty for the store to fill in.

const flagAuthenticated = 0x01

func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(CurrentSchemaVersion)

	var flags byte
	if s.Authenticated {
		flags |= flagAuthenticated
	}
	buf.WriteByte(flags)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"userID", s.UserID},
		{"username", s.Username},
		{"email", s.Email},
	} {
		if len(field.value) > 255 {
			return nil, errors.New(field.name + " too long")
		}
		buf.WriteByte(byte(len(field.value)))
		buf.WriteString(field.value)
	}

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != CurrentSchemaVersion {
		return nil, errors.New("invalid session version")
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	s := &Session{
		SchemaVersion: version,
		Authenticated: flags&flagAuthenticated != 0,
	}

	for _, dst := range []*string{&s.UserID, &s.Username, &s.Email} {
		length, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		value := make([]byte, length)
		if _, err := io.ReadFull(reader, value); err != nil {
			return nil, err
		}
		*dst = string(value)
	}

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	return s, nil
}
