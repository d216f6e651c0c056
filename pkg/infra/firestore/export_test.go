package firestore

var IsRetryable = isRetryable
