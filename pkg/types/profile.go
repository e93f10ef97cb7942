package types

import "time"

// ProfileSchemaVersion is the current UserProfile schema version.
// MigrateProfile upgrades older stored records to this version.
const ProfileSchemaVersion = 1

// UserProfile is the singleton record describing the user. All descriptive
// fields are free text; an empty string means "unset".
type UserProfile struct {
	Profession         string    `json:"profession"`
	Role               string    `json:"role"`
	Responsibilities   string    `json:"responsibilities"`
	CommunicationStyle string    `json:"communication_style"`
	TonePreference     string    `json:"tone_preference"`
	WorkHours          string    `json:"work_hours"`
	Timezone           string    `json:"timezone"`
	Goals              string    `json:"goals"`
	Constraints        string    `json:"constraints"`
	SchemaVersion      int       `json:"schema_version"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultProfile returns a fresh profile with every descriptive field unset.
func DefaultProfile() UserProfile {
	return UserProfile{
		SchemaVersion: ProfileSchemaVersion,
		UpdatedAt:     time.Now(),
	}
}

// MigrateProfile produces a current-version profile from a stored record.
// Missing fields keep their zero value (which is the documented default for
// every descriptive field), and the schema version is stamped to current.
// Pure: the input is not modified.
func MigrateProfile(stored UserProfile) UserProfile {
	out := stored
	out.SchemaVersion = ProfileSchemaVersion
	return out
}

// ProfileUpdate carries a partial profile update. Nil fields are left
// unchanged; non-nil fields replace the stored value, including with "".
type ProfileUpdate struct {
	Profession         *string `json:"profession,omitempty"`
	Role               *string `json:"role,omitempty"`
	Responsibilities   *string `json:"responsibilities,omitempty"`
	CommunicationStyle *string `json:"communication_style,omitempty"`
	TonePreference     *string `json:"tone_preference,omitempty"`
	WorkHours          *string `json:"work_hours,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	Goals              *string `json:"goals,omitempty"`
	Constraints        *string `json:"constraints,omitempty"`
}

// profileField pairs a summary label with an accessor, in the fixed order
// the summary block lists fields.
type profileField struct {
	Label string
	Value func(*UserProfile) string
}

// ProfileFields enumerates the descriptive fields in summary order.
var ProfileFields = []profileField{
	{"职业", func(p *UserProfile) string { return p.Profession }},
	{"角色", func(p *UserProfile) string { return p.Role }},
	{"职责", func(p *UserProfile) string { return p.Responsibilities }},
	{"沟通风格", func(p *UserProfile) string { return p.CommunicationStyle }},
	{"语气偏好", func(p *UserProfile) string { return p.TonePreference }},
	{"工作时间", func(p *UserProfile) string { return p.WorkHours }},
	{"时区", func(p *UserProfile) string { return p.Timezone }},
	{"目标", func(p *UserProfile) string { return p.Goals }},
	{"约束", func(p *UserProfile) string { return p.Constraints }},
}
