// Package tenantsession implements the tenant session core of the portal.
//
// Layering:
// - domain: access-denial value type, tenant read models, errors
// - application: denial registry, tenant session store, tenant gate, denial presenter
// - ports: stable boundaries for the tenant API, clipboard and denial journal
// - adapters: concrete HTTP client, memory and postgres implementations
// - transport: wire DTOs shared by the HTTP client and the portal server
//
// Boundary notes:
// - Authorization decisions stay server-side; this module only requests a
//   tenant switch, classifies the outcome and decides what to show.
// - One Shell per browser session; nothing here is process-global.
package tenantsession
