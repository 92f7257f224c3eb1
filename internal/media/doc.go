// Package media converts decoded video frames to and from the packed RGB24
// rasters carried in thumbnail frames.
//
// Scaling uses bilinear filtering from golang.org/x/image/draw so that the
// thumbnail raster has exactly the requested dimensions. Still-image decode
// and JPEG encode go through github.com/disintegration/imaging.
package media
