package models

import "time"

// ============================================================================
// CHAT CONSTANTS
// ============================================================================

// DefaultMessageCacheSize is the number of recent messages kept per board
const DefaultMessageCacheSize = 100

// DefaultMessageCacheTTL is how long a board's cached messages stay live without writes
const DefaultMessageCacheTTL = 5 * time.Minute

// MaxMessageLength is the maximum chat message length in characters
const MaxMessageLength = 1000

// ============================================================================
// BOARD CONSTANTS
// ============================================================================

// MaxTitleLength bounds board names, column titles and card titles
const MaxTitleLength = 255

// MaxDescriptionLength bounds card descriptions
const MaxDescriptionLength = 10000
