// Package docx serializes mddocx documents to WordprocessingML (.docx) and
// merges existing .docx files.
//
// Render writes a complete package for a parsed document. Images are sized
// with mddocx.FitImage against the usable page width taken from Config:
//
//	doc := mddocx.ParseString(src, images)
//	err := docx.Render(docx.RenderRequest{
//		Document: doc,
//		Writer:   outFile,
//		Theme:    docx.DefaultTheme(),
//		Config:   docx.DefaultConfig(),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Merge concatenates the bodies of several .docx files into the first one,
// separated by page breaks. Image relationships and list numbering of the
// appended documents are renamed so they keep working in the result.
package docx
