// Package i18n holds the two-language message catalog used by the
// client. Hindi is the default until the user explicitly picks a
// language.
package i18n

import "fmt"

// Language identifies a supported UI language.
type Language string

const (
	English Language = "english"
	Hindi   Language = "hindi"
)

// DefaultLanguage applies when no preference has been stored yet.
const DefaultLanguage = Hindi

// ParseLanguage normalizes a stored or user-supplied language value.
// Unknown values fall back to the default.
func ParseLanguage(s string) Language {
	switch Language(s) {
	case English:
		return English
	case Hindi:
		return Hindi
	default:
		return DefaultLanguage
	}
}

// Message keys understood by T.
const (
	KeyAuthRequired      = "auth_required"
	KeyUnauthorized      = "unauthorized"
	KeySyncOffline       = "sync_offline"
	KeySyncError         = "sync_error"
	KeySyncing           = "syncing"
	KeySyncedJustNow     = "synced_just_now"
	KeySyncedMinutesAgo  = "synced_minutes_ago"
	KeySyncIdle          = "sync_idle"
	KeyPinInvalidFormat  = "pin_invalid_format"
	KeyPinMismatch       = "pin_mismatch"
	KeyPinUnlocked       = "pin_unlocked"
	KeyStorageNearFull   = "storage_near_full"
	KeyStorageOverLimit  = "storage_over_limit"
	KeyFeatureComingSoon = "feature_coming_soon"
	KeyNameRequired      = "name_required"
	KeyFileTooLarge      = "file_too_large"
)

var catalog = map[Language]map[string]string{
	English: {
		KeyAuthRequired:      "Your session has expired. Please sign in again.",
		KeyUnauthorized:      "You are not allowed to do that.",
		KeySyncOffline:       "Offline",
		KeySyncError:         "Sync failed",
		KeySyncing:           "Syncing...",
		KeySyncedJustNow:     "Synced just now",
		KeySyncedMinutesAgo:  "Synced %d minutes ago",
		KeySyncIdle:          "Up to date",
		KeyPinInvalidFormat:  "PIN must be 4 to 6 digits.",
		KeyPinMismatch:       "Incorrect PIN.",
		KeyPinUnlocked:       "Vault unlocked.",
		KeyStorageNearFull:   "Storage almost full",
		KeyStorageOverLimit:  "Storage limit exceeded",
		KeyFeatureComingSoon: "This feature is coming soon.",
		KeyNameRequired:      "Name cannot be empty.",
		KeyFileTooLarge:      "File of %s exceeds the %s limit.",
	},
	Hindi: {
		KeyAuthRequired:      "आपका सत्र समाप्त हो गया है। कृपया फिर से साइन इन करें।",
		KeyUnauthorized:      "आपको यह करने की अनुमति नहीं है।",
		KeySyncOffline:       "ऑफ़लाइन",
		KeySyncError:         "सिंक विफल रहा",
		KeySyncing:           "सिंक हो रहा है...",
		KeySyncedJustNow:     "अभी-अभी सिंक हुआ",
		KeySyncedMinutesAgo:  "%d मिनट पहले सिंक हुआ",
		KeySyncIdle:          "अप टू डेट",
		KeyPinInvalidFormat:  "पिन 4 से 6 अंकों का होना चाहिए।",
		KeyPinMismatch:       "गलत पिन।",
		KeyPinUnlocked:       "वॉल्ट खुल गया।",
		KeyStorageNearFull:   "स्टोरेज लगभग भर गया है",
		KeyStorageOverLimit:  "स्टोरेज सीमा पार हो गई है",
		KeyFeatureComingSoon: "यह सुविधा जल्द आ रही है।",
		KeyNameRequired:      "नाम खाली नहीं हो सकता।",
		KeyFileTooLarge:      "%s की फ़ाइल %s सीमा से अधिक है।",
	},
}

// T returns the message for key in the given language, applying fmt
// verbs when args are passed. Missing keys return the key itself so a
// typo is visible rather than silent.
func T(lang Language, key string, args ...any) string {
	msgs, ok := catalog[lang]
	if !ok {
		msgs = catalog[DefaultLanguage]
	}
	msg, ok := msgs[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
