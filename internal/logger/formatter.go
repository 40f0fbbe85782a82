package logger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"stats-loader/internal/utils"
)

// buildLogEntry wraps one log line in a Loki push payload.
func buildLogEntry(level, message string, attrs []slog.Attr) map[string]interface{} {
	return map[string]interface{}{
		"streams": []map[string]interface{}{
			{
				"stream": map[string]string{
					"level": level,
					"job":   utils.EnvOr("APP_NAME", "stats-loader"),
				},
				"values": [][]string{
					{
						fmt.Sprintf("%d", time.Now().UnixNano()),
						buildLogLine(level, message, attrs),
					},
				},
			},
		},
	}
}

func buildLogLine(level, message string, attrs []slog.Attr) string {
	logData := map[string]interface{}{
		"level":   level,
		"message": message,
		"time":    time.Now().Format(time.RFC3339),
	}

	for _, attr := range attrs {
		logData[attr.Key] = attr.Value.Resolve().Any()
	}

	jsonBytes, err := json.Marshal(logData)
	if err != nil {
		return fmt.Sprintf(`{"level":%q,"message":%q}`, level, message)
	}
	return string(jsonBytes)
}
