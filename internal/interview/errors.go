package interview

// User-visible messages. Failures surface as one of these on the transient
// notification surface, never as a crashed session.
const (
	MsgCameraPermission   = "Camera access is required. Please allow camera access and try again."
	MsgCameraInUse        = "Camera is already in use by another application. Please close other applications using the camera."
	MsgRecordingFailed    = "Failed to start recording. Please try again."
	MsgNetworkError       = "Network error. Please check your internet connection and try again."
	MsgSubmissionFailed   = "Failed to submit your answers. Please try again."
	MsgTranscriptRequired = "A transcript is required before continuing. Please re-record your answer."
	MsgSubmitNotReady     = "Please answer all questions before submitting."
	MsgUnknownError       = "An unexpected error occurred. Please try again."
)
