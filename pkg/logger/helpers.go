package logger

// LogRequest logs HTTP request information
func LogRequest(log Logger, method, url string, statusCode int, duration float64) {
	if log == nil {
		log = GetLogger()
	}

	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration,
	}

	if statusCode >= 200 && statusCode < 300 {
		log.InfoWithFields("HTTP request completed", fields)
	} else if statusCode >= 400 && statusCode < 500 {
		log.WarnWithFields("HTTP request client error", fields)
	} else if statusCode >= 500 {
		log.ErrorWithFields("HTTP request server error", fields)
	}
}

// LogDownload logs download operations
func LogDownload(log Logger, url, path, mediaType string, success bool, err error) {
	if log == nil {
		log = GetLogger()
	}

	log = log.WithFields(map[string]interface{}{
		"url":        url,
		"path":       path,
		"media_type": mediaType,
		"success":    success,
	})

	if err != nil {
		log.WithError(err).Error("Download failed")
	} else if success {
		log.Info("Download completed")
	} else {
		log.Warn("Download skipped")
	}
}

// LogFailover logs a provider failover event
func LogFailover(log Logger, primary, secondary, reason string) {
	if log == nil {
		log = GetLogger()
	}

	log.WithFields(map[string]interface{}{
		"primary":   primary,
		"secondary": secondary,
		"reason":    reason,
		"action":    "failover",
	}).Warn("Provider failover")
}

// LogSweep logs a retention sweep result
func LogSweep(log Logger, directory string, deleted int) {
	if log == nil {
		log = GetLogger()
	}

	log.WithFields(map[string]interface{}{
		"directory": directory,
		"deleted":   deleted,
	}).Info("Retention sweep completed")
}
