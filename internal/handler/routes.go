package handler

// APIV1Prefix is the canonical base path for public HTTP API v1.
// Keep a single source of truth to avoid path drift across handlers and tests.
const APIV1Prefix = "/api/v1"

// TeamScope is the path segment every team-owned resource hangs off.
const TeamScope = "/teams/:team_id"
