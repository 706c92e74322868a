package domain

// KeyPrefix namespaces every key this service writes to the key-value store.
const KeyPrefix = "labcompare:"

// Matching defaults.
const (
	DefaultCrossLabThreshold  = 0.85
	DefaultCanonicalThreshold = 0.70
)
