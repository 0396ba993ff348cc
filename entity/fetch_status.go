package entity

// FetchStatus is the per-view request state surfaced to the dashboard.
// Transport and server errors never propagate past the usecase layer; they
// collapse into one of these flags plus a retained last error.
type FetchStatus string

const (
	FetchIdle    FetchStatus = "idle"
	FetchLoading FetchStatus = "loading"
	FetchError   FetchStatus = "error"
	FetchSaving  FetchStatus = "saving"
	FetchOK      FetchStatus = "ok"
	FetchFail    FetchStatus = "fail"
)
