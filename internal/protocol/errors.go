package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Rule/action layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrNoPermission = "E_NO_PERMISSION"
	ErrInternal     = "E_INTERNAL"
)

// Notice keys shown to the player.
const (
	NoticeCannotDimensionWarp       = "waystones.cannot_dimension_warp"
	NoticeObstructed                = "waystones.obstructed"
	NoticeCooldown                  = "waystones.cooldown"
	NoticeNotEnoughLevels           = "waystones.not_enough_xp"
	NoticeMissingItem               = "waystones.missing_item"
	NoticeUnknownWaystone           = "waystones.unknown_waystone"
	NoticeTooFar                    = "waystones.too_far"
	NoticeActivated                 = "waystones.activated"
	NoticeBroken                    = "waystones.broken"
	NoticeEdited                    = "waystones.edited"
	NoticeOnlyCreative              = "waystones.only_creative"
	NoticeNotTheOwner               = "waystones.not_the_owner"
	NoticeCreativeRequiredForGlobal = "waystones.creative_required_for_global"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoPermission:    {},
	ErrInternal:        {},

	NoticeCannotDimensionWarp:       {},
	NoticeObstructed:                {},
	NoticeCooldown:                  {},
	NoticeNotEnoughLevels:           {},
	NoticeMissingItem:               {},
	NoticeUnknownWaystone:           {},
	NoticeTooFar:                    {},
	NoticeActivated:                 {},
	NoticeBroken:                    {},
	NoticeEdited:                    {},
	NoticeOnlyCreative:              {},
	NoticeNotTheOwner:               {},
	NoticeCreativeRequiredForGlobal: {},
}

// IsKnownCode reports whether code is an error code or notice key clients
// can translate. The empty code is known.
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
