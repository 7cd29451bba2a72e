package chunkstore

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
)

// EncodingZstd marks chunks stored as zstd-compressed JSON. Chunks written
// without compression carry an empty encoding and are plain JSON arrays.
const EncodingZstd = "zstd"

type codec interface {
	name() string
	encode([]models.Record) ([]byte, error)
	decode([]byte) ([]models.Record, error)
}

func codecFor(encoding string) (codec, error) {
	switch encoding {
	case "":
		return jsonCodec{}, nil
	case EncodingZstd:
		return zstdCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported chunk encoding %q", encoding)
	}
}

type jsonCodec struct{}

func (jsonCodec) name() string { return "" }

func (jsonCodec) encode(recs []models.Record) ([]byte, error) {
	return json.Marshal(recs)
}

func (jsonCodec) decode(b []byte) ([]models.Record, error) {
	var recs []models.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

type zstdCodec struct{}

func (zstdCodec) name() string { return EncodingZstd }

func (zstdCodec) encode(recs []models.Record) ([]byte, error) {
	raw, err := json.Marshal(recs)
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

func (zstdCodec) decode(b []byte) ([]models.Record, error) {
	raw, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return jsonCodec{}.decode(raw)
}
