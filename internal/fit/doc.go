// Package fit fits a clothing mesh onto a body mesh.
//
// A fit subdivides a copy of the clothing into a proxy, projects the proxy
// onto the body, transfers the proxy displacement back onto the clothing
// vertices and diffuses it with a gradient-adaptive smoother. Vertices in
// an optional preserve group are not fitted directly; they follow nearby
// fitted vertices.
//
// Fitter keeps the expensive intermediate results in a Session so that
// parameter changes during preview only rerun smoothing and follow.
package fit
