// Package scale recovers the physical scale of an SEM micrograph from the
// calibration footer printed below the image.
//
// The footer is located from the brightness rise at its top edge, the
// calibration bar is found as the outermost pair of horizontal lines in the
// right part of the footer, and the printed length between them (for example
// "20um") is read with a TextReader. The scale is the printed length divided
// by the pixel distance between the outer ends of the two lines.
//
// When the micrographs carry no usable footer the scale can be given
// explicitly with Options.Override.
package scale
