package models

// RegistrationCategory is the role a user holds on the platform
type RegistrationCategory string

const (
	CategoryAttendee  RegistrationCategory = "attendee"
	CategorySpeaker   RegistrationCategory = "speaker"
	CategoryOrganizer RegistrationCategory = "organizer"
	CategoryExhibitor RegistrationCategory = "exhibitor"
	CategoryPresenter RegistrationCategory = "presenter"
)

// Valid reports whether c is a known registration category
func (c RegistrationCategory) Valid() bool {
	switch c {
	case CategoryAttendee, CategorySpeaker, CategoryOrganizer, CategoryExhibitor, CategoryPresenter:
		return true
	}
	return false
}

// OrDefault returns attendee for an empty category
func (c RegistrationCategory) OrDefault() RegistrationCategory {
	if c == "" {
		return CategoryAttendee
	}
	return c
}

// EventType is the kind of a component event inside a conference
type EventType string

const (
	EventConference      EventType = "conference"
	EventPresentation    EventType = "presentation"
	EventExhibition      EventType = "exhibition"
	EventWorkshop        EventType = "workshop"
	EventPanel           EventType = "panel"
	EventKeynote         EventType = "keynote"
	EventNetworkingEvent EventType = "networking_event"
	EventProductLaunch   EventType = "product_launch"
	EventOther           EventType = "other"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventConference, EventPresentation, EventExhibition, EventWorkshop, EventPanel,
		EventKeynote, EventNetworkingEvent, EventProductLaunch, EventOther:
		return true
	}
	return false
}

// RegistrationStatus tracks an organizer-issued registration code
type RegistrationStatus string

const (
	RegistrationPreRegistered RegistrationStatus = "pre_registered"
	RegistrationClaimed       RegistrationStatus = "claimed"
	RegistrationCancelled     RegistrationStatus = "cancelled"
)

// AttendanceStatus describes how a user attended an event
type AttendanceStatus string

const (
	AttendanceAttended       AttendanceStatus = "attended"
	AttendanceCheckedIn      AttendanceStatus = "checked_in"
	AttendanceVirtualPresent AttendanceStatus = "virtual_present"
	AttendanceRegistered     AttendanceStatus = "registered"
	AttendanceNoShow         AttendanceStatus = "no_show"
)

// Valid reports whether s is a known attendance status
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceAttended, AttendanceCheckedIn, AttendanceVirtualPresent, AttendanceRegistered, AttendanceNoShow:
		return true
	}
	return false
}

// RecommendationCategory names a people recommendation list
type RecommendationCategory string

const (
	RecommendDemographics RecommendationCategory = "demographics"
	RecommendInterests    RecommendationCategory = "interests"
	RecommendSkills       RecommendationCategory = "skills"
	RecommendUnified      RecommendationCategory = "unified"
)

// Label is the human readable list title returned to clients
func (c RecommendationCategory) Label() string {
	switch c {
	case RecommendDemographics:
		return "People For You (Demographics)"
	case RecommendInterests:
		return "People with Similar Interests"
	case RecommendSkills:
		return "People with Similar Skills"
	case RecommendUnified:
		return "Unified Recommendations"
	}
	return string(c)
}

// VocabularyKind names a normalised vocabulary table
type VocabularyKind string

const (
	VocabularySkill    VocabularyKind = "skill"
	VocabularyInterest VocabularyKind = "interest"
	VocabularyJobRole  VocabularyKind = "job_role"
	VocabularyCompany  VocabularyKind = "company"
	VocabularyLocation VocabularyKind = "location"
)

// Valid reports whether k is a known vocabulary kind
func (k VocabularyKind) Valid() bool {
	switch k {
	case VocabularySkill, VocabularyInterest, VocabularyJobRole, VocabularyCompany, VocabularyLocation:
		return true
	}
	return false
}
