// Package http provides HTTP handlers and middleware for the bouncer API.
//
// The router exposes the following endpoints:
//   - POST /users: onboards a user. Body: {"name","surname","apps",
//     "time_factors":{"morning","worktime","evening","before_bed"}}. Response: {"user_id"}.
//   - GET /users/{id}/preferences, PUT /users/{id}/preferences: read the latest
//     preference version or append a new one. PUT accepts any of "personality",
//     "apps", "time_factors" and "preference".
//   - POST /users/{id}/decisions: arbitrates {"query","usage":[{"package_name",
//     "total_minutes","last_used"}]} and returns {"allow","minutes","reply"}.
//   - POST /users/{id}/decisions/voice: multipart form with an "audio" file and
//     optional "usage" JSON; the response adds the "transcript".
//   - GET /users/{id}/requests?window_hours=N, GET /users/{id}/requests/today,
//     GET /users/{id}/requests/latest, DELETE /users/{id}/requests: request log
//     access and purge.
//   - POST /users/{id}/audits: {"interaction_log","screen_state","image_base64",
//     "image_mime_type"} returns a compliance verdict.
//   - GET /healthz: storage liveness.
//
// Errors are returned as {"error_code","message","errors"}.
package http
