package protocol

import "github.com/danmuck/summarizer/internal/protocol/stream"

// EncodeRequest builds the wire form of req:
//
//	magic [2] . version [2] . ratio [4] . file_name_len [4] . file_name [file_name_len]
//
// The returned buffer is exactly RequestHeaderLen+len(req.FileName) bytes. A
// failed write returns the stream error and no bytes.
func EncodeRequest(req Request) ([]byte, error) {
	s, err := stream.NewWriter(RequestHeaderLen + len(req.FileName))
	if err != nil {
		return nil, err
	}
	if err := s.WriteUint16(Magic); err != nil {
		return nil, err
	}
	if err := s.WriteUint16(Version); err != nil {
		return nil, err
	}
	if err := s.WriteFloat32(req.Ratio); err != nil {
		return nil, err
	}
	if err := s.WriteBytes(req.FileName); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// EncodeResponseHeader builds the daemon's response header. Magic and
// Version are always the protocol constants; SummaryLength is written only
// for summary responses.
func EncodeResponseHeader(h ResponseHeader) ([]byte, error) {
	if !h.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	size := BaseHeaderLen
	if h.Status == StatusSummary {
		size = MinHeaderLen
	}
	s, err := stream.NewWriter(size)
	if err != nil {
		return nil, err
	}
	if err := s.WriteUint16(Magic); err != nil {
		return nil, err
	}
	if err := s.WriteUint16(Version); err != nil {
		return nil, err
	}
	if err := s.WriteUint32(uint32(h.Status)); err != nil {
		return nil, err
	}
	if h.Status == StatusSummary {
		if err := s.WriteUint32(h.SummaryLength); err != nil {
			return nil, err
		}
	}
	return s.Bytes(), nil
}
