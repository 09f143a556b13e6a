package platform

const moduleExt = ".dylib"
