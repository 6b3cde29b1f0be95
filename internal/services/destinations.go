package services

import "github.com/google/uuid"

// Destinations a session's subscribers listen on, one per purpose.
func MessageDestination(sessionID uuid.UUID) string {
	return "/queue/meeting/" + sessionID.String()
}

func ConnectDestination(sessionID uuid.UUID) string {
	return "/queue/connect/" + sessionID.String()
}

func DisconnectDestination(sessionID uuid.UUID) string {
	return "/queue/disconnect/" + sessionID.String()
}

// SessionDestinations lists every destination of a session.
func SessionDestinations(sessionID uuid.UUID) []string {
	return []string{
		MessageDestination(sessionID),
		ConnectDestination(sessionID),
		DisconnectDestination(sessionID),
	}
}
