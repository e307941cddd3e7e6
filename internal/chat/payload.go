package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/clatterlab/clatter/internal/common/errorx"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/protocol"
	"github.com/clatterlab/clatter/internal/storage"
)

// Field length limits, matching the storage schema.
const (
	maxNicknameLen = 16
	maxPasswordLen = 36
	maxTitleLen    = 24
	maxTextLen     = 128
)

// Inbound payload shapes. Pointer fields distinguish "absent" from "zero"
// so the validator can report missing fields precisely.
type (
	credentialsPayload struct {
		Nickname *string `json:"nickname"`
		Password *string `json:"password"`
	}

	relocatePayload struct {
		RoomID *int64 `json:"room_id"`
	}

	createRoomPayload struct {
		Title *string `json:"title"`
	}

	sendPublicPayload struct {
		Text *string `json:"text"`
	}

	updatePermissionPayload struct {
		UserID *int64  `json:"user_id"`
		Rank   *string `json:"local_rank"`
	}

	getOneUserPayload struct {
		UserID *int64 `json:"user_id"`
	}

	onlineListPayload struct {
		RoomID *int64 `json:"room_id"`
	}

	changeNicknamePayload struct {
		Nickname *string `json:"nickname"`
	}

	changePasswordPayload struct {
		Password *string `json:"password"`
	}
)

// Outbound payload shapes, serialized with the protocol's field aliases.
type (
	tokenOut struct {
		Token string `json:"token"`
	}

	authorOut struct {
		UserID   int64         `json:"user_id"`
		Nickname string        `json:"nickname"`
		Rank     presence.Rank `json:"local_rank"`
	}

	messageOut struct {
		Text      string    `json:"text"`
		Author    authorOut `json:"author"`
		CreatedAt string    `json:"created_at"`
	}

	roomOut struct {
		RoomID int64  `json:"room_id"`
		Title  string `json:"title"`
		Online int    `json:"online,omitempty"`
	}

	onlineUserOut struct {
		UserID   int64  `json:"user_id"`
		Nickname string `json:"nickname"`
		RoomID   int64  `json:"room_id,omitempty"`
	}

	userInfoOut struct {
		UserID    int64    `json:"user_id"`
		Nickname  string   `json:"nickname"`
		CreatedAt string   `json:"created_at"`
		Status    string   `json:"status"`
		Location  *roomOut `json:"location"`
	}

	rankUpdateOut struct {
		RoomID int64         `json:"room_id"`
		Rank   presence.Rank `json:"local_rank"`
	}
)

// decodePayload unmarshals the raw payload into v. A null payload decodes
// as an empty object so required-field checks report every missing field.
// JSON type mismatches map onto wire field errors.
func decodePayload(raw []byte, v any) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			path := typeErr.Field
			if path == "" {
				path = "#"
			}
			return protocol.FieldErrors{{Path: path, Reason: protocol.ReasonWrongType}}
		}
		return protocol.FieldErrors{{Path: "#", Reason: protocol.ReasonWrongType}}
	}
	return nil
}

// fieldSet accumulates validation failures across a payload's fields.
type fieldSet struct {
	errs protocol.FieldErrors
}

// requireString checks presence and trims surrounding whitespace.
func (f *fieldSet) requireString(name string, v *string) string {
	if v == nil {
		f.errs = append(f.errs, protocol.FieldError{Path: name, Reason: protocol.ReasonMissing})
		return ""
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		f.errs = append(f.errs, protocol.FieldError{Path: name, Reason: protocol.ReasonMissing})
		return ""
	}
	return s
}

// requireInt checks presence of a numeric id.
func (f *fieldSet) requireInt(name string, v *int64) int64 {
	if v == nil {
		f.errs = append(f.errs, protocol.FieldError{Path: name, Reason: protocol.ReasonMissing})
		return 0
	}
	return *v
}

// requireRank checks presence and parses the rank enum.
func (f *fieldSet) requireRank(name string, v *string) presence.Rank {
	if v == nil {
		f.errs = append(f.errs, protocol.FieldError{Path: name, Reason: protocol.ReasonMissing})
		return presence.RankNone
	}
	rank, err := presence.ParseRank(*v)
	if err != nil {
		f.errs = append(f.errs, protocol.FieldError{Path: name, Reason: protocol.ReasonInvalidEnum})
		return presence.RankNone
	}
	return rank
}

// err returns the accumulated field errors, or nil when the payload is valid.
func (f *fieldSet) err() error {
	if len(f.errs) > 0 {
		return f.errs
	}
	return nil
}

// tooLong builds a localized length-violation error for one field.
func (s *Service) tooLong(field string) error {
	return errorx.InvalidData("error.validation").WithDetail([]string{
		s.translator.T("error.field_too_long", map[string]any{"Field": field}),
	})
}

// checkLen enforces a rune-count limit after the presence checks passed.
func (s *Service) checkLen(field, value string, maxLen int) error {
	if utf8.RuneCountInString(value) > maxLen {
		return s.tooLong(field)
	}
	return nil
}

// storeErr translates storage sentinels into wire errors; anything else is
// an internal failure.
func storeErr(err error, duplicateMsgID, notFoundMsgID string) error {
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return errorx.Duplicate(duplicateMsgID)
	case errors.Is(err, storage.ErrNotFound):
		return errorx.NotFound(notFoundMsgID)
	default:
		return errorx.Internal(err)
	}
}
