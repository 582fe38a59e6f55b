package gcppubsub

import (
	"fmt"
	"os"
)

// GetGCPProjectID returns projectID, falling back to GCP_PROJECT_ID.
func GetGCPProjectID(projectID string) (string, error) {
	if projectID != "" {
		return projectID, nil
	}
	if projectID = os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		return projectID, nil
	}
	return "", fmt.Errorf("GCP_PROJECT_ID must be set to use Pub/Sub")
}
