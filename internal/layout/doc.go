// Package layout places text on the Avery Zweckform 3658 label sheet.
//
// Input lines are chunked into labels of LinesPerLabel lines, labels are
// paginated 24 to a sheet (3 columns, 8 rows) and each label gets the largest
// font size, searched downward from a seed, whose line block fits the label
// height and whose every line fits the column's safe width. The result is a
// list of positioned draw commands per page.
//
// All coordinates are PostScript points with the origin at the bottom-left
// corner of the page and y growing upward. Padding settings are millimetres.
//
// The engine never renders anything itself. Text widths come from a Measurer
// and the finished commands can be replayed onto any Surface.
package layout
