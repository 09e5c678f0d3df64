package reporting

// enqueueResponse is the acknowledgment body for a submitted export.
type enqueueResponse struct {
	JobIdentifier string `json:"job_identifier"`
}

// jobStatusResponse is the body of a job status poll.
type jobStatusResponse struct {
	JobIdentifier string `json:"job_identifier"`
	Status        string `json:"status"`
	DownloadURL   string `json:"download_url,omitempty"`
}

// ErrorResponse is an error body from the reporting API.
type ErrorResponse struct {
	Type   string `json:"type"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Message flattens the first error into a printable string.
func (e ErrorResponse) Message() string {
	if len(e.Errors) == 0 {
		return e.Type
	}
	return e.Errors[0].Message
}
